package mq

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/nova-jack/novafusion/config"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error asks the broker to
// redeliver, up to MaxDeliveries; wrap the error with Discard to drop the
// message at once.
type Handler func(ctx context.Context, msg Message) error

const (
	// ContentTypeAttr carries the payload media type. Publishers may set it;
	// every backend delivers it on Message.Attributes.
	ContentTypeAttr = "content-type"
	// DefaultContentType applies when the publisher sets none.
	DefaultContentType = "application/json"

	// MaxDeliveries is how many times a failing message is handed to a
	// handler before it is dropped.
	MaxDeliveries = 2
)

// ErrDiscard marks a handler failure that redelivery cannot fix, such as
// an undecodable payload.
var ErrDiscard = errors.New("mq: discard message")

// Discard wraps err so the broker drops the message instead of redelivering.
func Discard(err error) error {
	return fmt.Errorf("%w: %w", ErrDiscard, err)
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDrop
)

// settle decides what happens to a message after its handler returned err
// on delivery number deliveries (1-based).
func settle(err error, deliveries int) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, ErrDiscard), deliveries >= MaxDeliveries:
		return outcomeDrop
	default:
		return outcomeRetry
	}
}

// withContentType returns a copy of attrs with ContentTypeAttr filled in.
func withContentType(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	maps.Copy(out, attrs)
	if strings.TrimSpace(out[ContentTypeAttr]) == "" {
		out[ContentTypeAttr] = DefaultContentType
	}
	return out
}

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

func Wrap(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// New connects to the broker selected by cfg.Backend. An empty backend
// disables messaging and returns nil.
func New(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case "memory":
		backend = NewMemory()
	default:
		return nil, fmt.Errorf("unsupported MQ_BACKEND %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Wrap(backend), nil
}

// Publish sends data to the named channel and returns the broker message id.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks consuming channel until ctx is done or the broker fails.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
