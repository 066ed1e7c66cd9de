package mq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/nova-jack/novafusion/config"
)

const (
	defaultSubscriptionSuffix = "-sub"
	minAckDeadline            = 10 * time.Second
)

// PubSubClient maps channels to Pub/Sub topics. Each channel gets one
// shared subscription named channel+suffix, so several notify workers
// split the stream rather than each seeing every event.
type PubSubClient struct {
	client             *pubsub.Client
	subscriptionSuffix string
	maxOutstanding     int
	ackDeadline        time.Duration

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = defaultSubscriptionSuffix
	}
	return &PubSubClient{
		client:             client,
		subscriptionSuffix: suffix,
		maxOutstanding:     cfg.MaxOutstanding,
		ackDeadline:        max(cfg.AckDeadline, minAckDeadline),
		topics:             make(map[string]*pubsub.Topic),
	}, nil
}

// Publish sends data to the channel's topic and waits for the server id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	return topic.Publish(ctx, toPubSubMessage(data, attrs)).Get(ctx)
}

// Subscribe receives from the channel's shared subscription until ctx is
// done. Failed messages are nacked for redelivery until MaxDeliveries,
// then acked and dropped, since no dead-letter topic is configured.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}
	sub, err := p.subscription(ctx, p.subscriptionName(channel), topic)
	if err != nil {
		return err
	}
	if p.maxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = p.maxOutstanding
	}

	tracker := newDeliveryTracker()
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		switch settle(handler(ctx, fromPubSubMessage(msg)), tracker.next(msg)) {
		case outcomeRetry:
			msg.Nack()
		default:
			tracker.forget(msg.ID)
			msg.Ack()
		}
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for name, topic := range p.topics {
		topic.Stop()
		delete(p.topics, name)
	}
	p.mu.Unlock()
	return p.client.Close()
}

// topic returns the cached publisher for name, creating the topic on first use.
func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic, ok := p.topics[name]; ok {
		return topic, nil
	}

	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if topic, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, err
		}
	}
	p.topics[name] = topic
	return topic, nil
}

func (p *PubSubClient) subscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return sub, nil
	}
	return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: p.ackDeadline,
	})
}

func (p *PubSubClient) subscriptionName(channel string) string {
	return channel + p.subscriptionSuffix
}

// Pub/Sub has no content type field, so ContentTypeAttr travels as an
// attribute and is always present on both sides.
func toPubSubMessage(data []byte, attrs map[string]string) *pubsub.Message {
	return &pubsub.Message{Data: data, Attributes: withContentType(attrs)}
}

func fromPubSubMessage(msg *pubsub.Message) Message {
	return Message{
		ID:         msg.ID,
		Data:       msg.Data,
		Attributes: withContentType(msg.Attributes),
	}
}

// deliveryTracker counts deliveries per message id. Pub/Sub only sets
// DeliveryAttempt on subscriptions with a dead-letter policy, so local
// counts fill in otherwise.
type deliveryTracker struct {
	mu   sync.Mutex
	seen map[string]int
}

func newDeliveryTracker() *deliveryTracker {
	return &deliveryTracker{seen: make(map[string]int)}
}

func (t *deliveryTracker) next(msg *pubsub.Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.seen[msg.ID] + 1
	if msg.DeliveryAttempt != nil && *msg.DeliveryAttempt > n {
		n = *msg.DeliveryAttempt
	}
	t.seen[msg.ID] = n
	return n
}

func (t *deliveryTracker) forget(id string) {
	t.mu.Lock()
	delete(t.seen, id)
	t.mu.Unlock()
}
