package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// ErrClosed is returned by a Memory broker after Close.
var ErrClosed = errors.New("mq: broker closed")

// Memory is an in-process broker. Messages published before anyone
// subscribes are buffered per channel; a failed handler puts the message
// back at the head of the queue until it has been delivered MaxDeliveries
// times.
type Memory struct {
	mu         sync.Mutex
	cond       *sync.Cond
	queues     map[string][]Message
	deliveries map[string]int
	seq        int
	closed     bool
}

func NewMemory() *Memory {
	m := &Memory{queues: make(map[string][]Message), deliveries: make(map[string]int)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Memory) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("mq: channel is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	m.seq++
	id := strconv.Itoa(m.seq)
	m.queues[channel] = append(m.queues[channel], Message{
		ID:         id,
		Data:       append([]byte(nil), data...),
		Attributes: withContentType(attrs),
	})
	m.cond.Broadcast()
	return id, nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	for {
		m.mu.Lock()
		for len(m.queues[channel]) == 0 && !m.closed && ctx.Err() == nil {
			m.cond.Wait()
		}
		if err := ctx.Err(); err != nil {
			m.mu.Unlock()
			return err
		}
		if m.closed {
			m.mu.Unlock()
			return ErrClosed
		}
		msg := m.queues[channel][0]
		m.queues[channel] = m.queues[channel][1:]
		m.deliveries[msg.ID]++
		n := m.deliveries[msg.ID]
		m.mu.Unlock()

		result := settle(handler(ctx, msg), n)
		m.mu.Lock()
		if result == outcomeRetry {
			m.queues[channel] = append([]Message{msg}, m.queues[channel]...)
		} else {
			delete(m.deliveries, msg.ID)
		}
		m.mu.Unlock()
		if result == outcomeRetry && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Pending reports how many messages are waiting on channel.
func (m *Memory) Pending(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[channel])
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
	return nil
}
