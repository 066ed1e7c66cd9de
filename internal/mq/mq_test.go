package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-jack/novafusion/config"
)

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	q, err := New(ctx, config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = New(ctx, config.MQConfig{Backend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, q)
	require.NoError(t, q.Close())

	_, err = New(ctx, config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = New(ctx, config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "url is required")
}

func TestMemory_DeliversBufferedMessages(t *testing.T) {
	broker := NewMemory()
	q := Wrap(broker)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := q.Publish(ctx, "enquiry.created", []byte(`{"id":"1"}`), map[string]string{"type": "enquiry.created"})
	require.NoError(t, err)
	_, err = q.Publish(ctx, "enquiry.created", []byte(`{"id":"2"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, broker.Pending("enquiry.created"))

	var got []string
	err = q.Subscribe(ctx, "enquiry.created", func(_ context.Context, msg Message) error {
		got = append(got, string(msg.Data))
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{`{"id":"1"}`, `{"id":"2"}`}, got)
}

func TestMemory_RequeuesFailedMessage(t *testing.T) {
	broker := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := broker.Publish(ctx, "jobs", []byte("x"), nil)
	require.NoError(t, err)

	attempts := 0
	err = broker.Subscribe(ctx, "jobs", func(_ context.Context, msg Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 0, broker.Pending("jobs"))
}

func TestMemory_Closed(t *testing.T) {
	broker := NewMemory()
	require.NoError(t, broker.Close())

	_, err := broker.Publish(context.Background(), "jobs", nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, broker.Subscribe(context.Background(), "jobs", nil), ErrClosed)
}

func TestHeadersToAttributes(t *testing.T) {
	attrs := headersToAttributes(map[string]any{"type": "enquiry.created", "attempt": int32(2), "raw": []byte("b")})
	assert.Equal(t, map[string]string{"type": "enquiry.created", "attempt": "2", "raw": "b"}, attrs)
	assert.Nil(t, headersToAttributes(nil))
}

func TestSettle(t *testing.T) {
	failed := errors.New("smtp down")
	tests := []struct {
		name       string
		err        error
		deliveries int
		want       outcome
	}{
		{"success", nil, 1, outcomeAck},
		{"first failure retries", failed, 1, outcomeRetry},
		{"last delivery drops", failed, MaxDeliveries, outcomeDrop},
		{"discard drops at once", Discard(failed), 1, outcomeDrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settle(tt.err, tt.deliveries))
		})
	}
	assert.ErrorIs(t, Discard(failed), failed)
}

func TestMemory_DropsAfterMaxDeliveries(t *testing.T) {
	broker := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := broker.Publish(ctx, "jobs", []byte("poison"), nil)
	require.NoError(t, err)
	_, err = broker.Publish(ctx, "jobs", []byte("bad json"), nil)
	require.NoError(t, err)
	_, err = broker.Publish(ctx, "jobs", []byte("ok"), nil)
	require.NoError(t, err)

	seen := map[string]int{}
	err = broker.Subscribe(ctx, "jobs", func(_ context.Context, msg Message) error {
		seen[string(msg.Data)]++
		switch string(msg.Data) {
		case "poison":
			return errors.New("always fails")
		case "bad json":
			return Discard(errors.New("unexpected character"))
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, map[string]int{"poison": MaxDeliveries, "bad json": 1, "ok": 1}, seen)
	assert.Equal(t, 0, broker.Pending("jobs"))
}

func TestMemory_DeliversContentType(t *testing.T) {
	broker := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	attrs := map[string]string{"type": "enquiry.created"}
	_, err := broker.Publish(ctx, "events", []byte(`{}`), attrs)
	require.NoError(t, err)
	_, err = broker.Publish(ctx, "events", []byte("hi"), map[string]string{ContentTypeAttr: "text/plain"})
	require.NoError(t, err)
	assert.Len(t, attrs, 1, "publisher attributes are not modified")

	var got []Message
	err = broker.Subscribe(ctx, "events", func(_ context.Context, msg Message) error {
		got = append(got, msg)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"type": "enquiry.created", ContentTypeAttr: DefaultContentType}, got[0].Attributes)
	assert.Equal(t, "text/plain", got[1].Attributes[ContentTypeAttr])
}

func TestPubSubMessage_CarriesContentType(t *testing.T) {
	out := toPubSubMessage([]byte(`{"id":"1"}`), map[string]string{"type": "enquiry.created"})
	assert.Equal(t, DefaultContentType, out.Attributes[ContentTypeAttr])
	assert.Equal(t, "enquiry.created", out.Attributes["type"])

	out = toPubSubMessage(nil, map[string]string{ContentTypeAttr: "text/plain"})
	assert.Equal(t, "text/plain", out.Attributes[ContentTypeAttr])

	in := fromPubSubMessage(&pubsub.Message{ID: "m-1", Data: []byte("x")})
	assert.Equal(t, "m-1", in.ID)
	assert.Equal(t, map[string]string{ContentTypeAttr: DefaultContentType}, in.Attributes)
}

func TestDeliveryTracker(t *testing.T) {
	tracker := newDeliveryTracker()
	msg := &pubsub.Message{ID: "m-1"}

	assert.Equal(t, 1, tracker.next(msg))
	assert.Equal(t, 2, tracker.next(msg))
	tracker.forget("m-1")
	assert.Equal(t, 1, tracker.next(msg))

	attempt := 5
	assert.Equal(t, 5, tracker.next(&pubsub.Message{ID: "m-2", DeliveryAttempt: &attempt}))
}

func TestDeliveryAttributes(t *testing.T) {
	attrs := deliveryAttributes(amqp.Delivery{ContentType: "text/plain", Headers: amqp.Table{"type": "enquiry.created"}})
	assert.Equal(t, map[string]string{"type": "enquiry.created", ContentTypeAttr: "text/plain"}, attrs)

	attrs = deliveryAttributes(amqp.Delivery{})
	assert.Equal(t, map[string]string{ContentTypeAttr: DefaultContentType}, attrs)
}
