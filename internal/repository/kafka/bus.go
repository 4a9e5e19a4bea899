package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/obs/retry"
)

type BusConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	FromBeginning  bool
	Partitions     int
	RequestTimeout time.Duration
	PublishRetries int
}

// Bus carries every event name over one Kafka topic, keyed by event name.
// Subscriptions are filtered locally by the router, so each process needs its
// own consumer group to observe replies addressed to it.
type Bus struct {
	cfg      BusConfig
	log      *zap.Logger
	router   *bus.Router
	producer *Producer
	consumer *Consumer
	policy   retry.Policy

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

var _ bus.Bus = (*Bus)(nil)

func NewBus(ctx context.Context, cfg BusConfig, log *zap.Logger) (*Bus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka bus: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka bus: topic is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "bus.kafka"))

	if err := EnsureTopic(ctx, cfg.Brokers, TopicSpec{Name: cfg.Topic, NumPartitions: cfg.Partitions}, log); err != nil {
		log.Warn("ensure topic failed; relying on auto-create", zap.Error(err))
	}

	b := &Bus{
		cfg:      cfg,
		log:      log,
		router:   bus.NewRouter(log),
		producer: NewProducer(cfg.Brokers, cfg.Topic).WithLogger(log),
		consumer: NewConsumer(ConsumerConfig{
			Brokers:       cfg.Brokers,
			GroupID:       cfg.GroupID,
			Topic:         cfg.Topic,
			FromBeginning: cfg.FromBeginning,
		}).WithLogger(log),
		policy: retry.PublishPolicy("bus.kafka.publish", cfg.PublishRetries, log),
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		handler := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} }, b.deliver)
		if err := b.consumer.Consume(runCtx, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("consumer exited", zap.Error(err))
		}
	}()
	return b, nil
}

func (b *Bus) deliver(ctx context.Context, _ kafka.Message, s *structpb.Struct) error {
	msg, err := DecodeMessage(s)
	if err != nil {
		// Undecodable records are skipped and committed.
		b.log.Warn("drop undecodable record", zap.Error(err))
		return nil
	}
	b.router.Dispatch(ctx, msg)
	return nil
}

func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	if b.closed.Load() {
		return bus.ErrClosed
	}
	msg = bus.Stamp(msg)
	return retry.Do(ctx, func() error {
		return b.producer.PublishProto(ctx, []byte(msg.EventName), EncodeMessage(msg))
	}, b.policy)
}

// Subscribe only records the pattern: the consumer already reads the whole topic.
func (b *Bus) Subscribe(_ context.Context, pattern string) error {
	if b.closed.Load() {
		return bus.ErrClosed
	}
	_, err := b.router.AddPattern(pattern)
	return err
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
	b.cancel()
	b.wg.Wait()
	return errors.Join(b.producer.Close(), b.consumer.Close())
}
