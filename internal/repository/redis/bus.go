package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/obs/retry"
)

type Config struct {
	URL            string
	Prefix         string
	PoolSize       int
	RequestTimeout time.Duration
	PublishRetries int
}

// Bus maps every event name to the channel Prefix+eventName. Patterns become
// PSUBSCRIBE subscriptions on one shared connection opened by the first Subscribe.
type Bus struct {
	cfg    Config
	log    *zap.Logger
	client *goredis.Client
	router *bus.Router
	policy retry.Policy

	mu     sync.Mutex
	ps     *goredis.PubSub
	wg     sync.WaitGroup
	closed atomic.Bool
}

var _ bus.Bus = (*Bus)(nil)

func NewBus(ctx context.Context, cfg Config, log *zap.Logger) (*Bus, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "bus.redis"))

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Bus{
		cfg:    cfg,
		log:    log,
		client: client,
		router: bus.NewRouter(log),
		policy: retry.PublishPolicy("bus.redis.publish", cfg.PublishRetries, log),
	}, nil
}

func (b *Bus) channel(topic string) string { return b.cfg.Prefix + topic }

func (b *Bus) topic(channel string) (string, bool) {
	if !strings.HasPrefix(channel, b.cfg.Prefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, b.cfg.Prefix), true
}

func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	if b.closed.Load() {
		return bus.ErrClosed
	}
	payload, err := json.Marshal(bus.Stamp(msg))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.EventName, err)
	}
	return retry.Do(ctx, func() error {
		return b.client.Publish(ctx, b.channel(msg.EventName), payload).Err()
	}, b.policy)
}

func (b *Bus) Subscribe(ctx context.Context, pattern string) error {
	if b.closed.Load() {
		return bus.ErrClosed
	}
	added, err := b.router.AddPattern(pattern)
	if err != nil || !added {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ps != nil {
		return b.ps.PSubscribe(ctx, b.channel(pattern))
	}
	ps := b.client.PSubscribe(ctx, b.channel(pattern))
	// Wait for the confirmation so nothing published after Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	b.ps = ps
	b.wg.Add(1)
	go b.receive(ps.Channel())
	return nil
}

func (b *Bus) receive(ch <-chan *goredis.Message) {
	defer b.wg.Done()
	for m := range ch {
		topic, ok := b.topic(m.Channel)
		if !ok {
			continue
		}
		var msg bus.Message
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			b.log.Warn("drop undecodable message", zap.String("channel", m.Channel), zap.Error(err))
			continue
		}
		if msg.EventName == "" {
			msg.EventName = topic
		}
		b.router.Dispatch(context.Background(), msg)
	}
}

func (b *Bus) OnMessage(topic string, h bus.Handler) { b.router.On(topic, h) }

func (b *Bus) RequestReply(ctx context.Context, msg bus.Message) (bus.Message, error) {
	if b.closed.Load() {
		return bus.Message{}, bus.ErrClosed
	}
	return b.router.RequestReply(ctx, b, msg, b.cfg.RequestTimeout)
}

func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	b.mu.Lock()
	if b.ps != nil {
		errs = append(errs, b.ps.Close())
	}
	b.mu.Unlock()
	b.wg.Wait()
	errs = append(errs, b.client.Close())
	return errors.Join(errs...)
}
