package bus

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport is the raw publish/subscribe surface a Router drives.
type Transport interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, pattern string) error
}

// Router keeps the transport-independent half of a Bus: subscribed patterns,
// topic handlers and requests waiting for their reply.
type Router struct {
	log *zap.Logger

	mu       sync.RWMutex
	patterns []string
	handlers map[string][]Handler
	pending  map[string]chan Message
}

func NewRouter(log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		log:      log,
		handlers: make(map[string][]Handler),
		pending:  make(map[string]chan Message),
	}
}

// AddPattern records a subscription and reports whether it was new.
func (r *Router) AddPattern(pattern string) (bool, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return false, fmt.Errorf("bad topic pattern %q: %w", pattern, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patterns {
		if p == pattern {
			return false, nil
		}
	}
	r.patterns = append(r.patterns, pattern)
	return true, nil
}

func (r *Router) hasPattern(pattern string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patterns {
		if p == pattern {
			return true
		}
	}
	return false
}

func (r *Router) Subscribed(topic string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patterns {
		if match(p, topic) {
			return true
		}
	}
	return false
}

func (r *Router) On(topic string, h Handler) {
	r.mu.Lock()
	r.handlers[topic] = append(r.handlers[topic], h)
	r.mu.Unlock()
}

// Dispatch hands msg to a waiting request or to every matching handler.
// Handler errors are logged, never returned: one consumer cannot stall the others.
func (r *Router) Dispatch(ctx context.Context, msg Message) {
	if msg.For != "" {
		r.mu.RLock()
		ch, ok := r.pending[msg.For]
		r.mu.RUnlock()
		if ok {
			select {
			case ch <- msg:
			default:
			}
			return
		}
	}
	if !r.Subscribed(msg.EventName) {
		return
	}

	r.mu.RLock()
	var hs []Handler
	for topic, list := range r.handlers {
		if match(topic, msg.EventName) {
			hs = append(hs, list...)
		}
	}
	r.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, msg); err != nil {
			r.log.Warn("bus handler failed",
				zap.String("event", msg.EventName),
				zap.String("sender", msg.Sender),
				zap.Error(err))
		}
	}
}

// RequestReply publishes msg through t and waits for the response correlated by MessageID.
func (r *Router) RequestReply(ctx context.Context, t Transport, msg Message, timeout time.Duration) (Message, error) {
	if msg.MessageID == "" {
		msg.MessageID = newID()
	}
	respTopic := ResponseTopic(msg.EventName)
	if !r.hasPattern(respTopic) {
		if err := t.Subscribe(ctx, respTopic); err != nil {
			return Message{}, fmt.Errorf("subscribe %s: %w", respTopic, err)
		}
	}

	ch := make(chan Message, 1)
	r.mu.Lock()
	r.pending[msg.MessageID] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, msg.MessageID)
		r.mu.Unlock()
	}()

	if err := t.Publish(ctx, msg); err != nil {
		return Message{}, err
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("%s: %w", msg.EventName, ErrTimeout)
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func match(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	ok, err := path.Match(pattern, topic)
	return err == nil && ok
}
