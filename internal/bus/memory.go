package bus

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Memory is an in-process Bus. Publish delivers synchronously in the
// publisher's goroutine.
type Memory struct {
	r       *Router
	timeout time.Duration
	closed  atomic.Bool
}

var _ Bus = (*Memory)(nil)

func NewMemory(log *zap.Logger, requestTimeout time.Duration) *Memory {
	return &Memory{r: NewRouter(log), timeout: requestTimeout}
}

func (m *Memory) Publish(ctx context.Context, msg Message) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.r.Dispatch(ctx, Stamp(msg))
	return nil
}

func (m *Memory) Subscribe(_ context.Context, pattern string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	_, err := m.r.AddPattern(pattern)
	return err
}

func (m *Memory) OnMessage(topic string, h Handler) { m.r.On(topic, h) }

func (m *Memory) RequestReply(ctx context.Context, msg Message) (Message, error) {
	if m.closed.Load() {
		return Message{}, ErrClosed
	}
	return m.r.RequestReply(ctx, m, msg, m.timeout)
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
