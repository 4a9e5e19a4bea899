package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/NordCoder/ghbridge/internal/obs/retry"
)

// Handler receives one fetched message; ctx carries the producer's trace context.
type Handler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
	cfg    ConsumerConfig
}

type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topic         string
	FromBeginning bool
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           start,
		WatchPartitionChanges: true,

		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           500 * time.Millisecond,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	c := &Consumer{reader: r, cfg: cfg}
	return c.WithLogger(zap.L())
}

func (c *Consumer) WithLogger(l *zap.Logger) *Consumer {
	if l == nil {
		return c
	}
	cp := *c
	cp.log = l.With(
		zap.String("component", "kafka.consumer"),
		zap.String("topic", c.cfg.Topic),
		zap.String("group", c.cfg.GroupID),
	)
	return &cp
}

// Consume fetches until ctx is canceled. A message whose handler fails is
// logged and left uncommitted; fetch errors back off exponentially.
func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	log := c.log
	log.Info("consumer started")

	backoff := retry.ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second}
	failures := 0
	prop := otel.GetTextMapPropagator()
	tr := otel.Tracer("kafka.consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped (ctx canceled)")
				return ctx.Err()
			}
			wait := backoff.Next(failures)
			failures++
			if errors.Is(err, io.EOF) {
				log.Debug("fetch EOF; retry", zap.Duration("backoff", wait))
			} else {
				log.Warn("fetch failed; retry", zap.Error(err), zap.Duration("backoff", wait))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		failures = 0

		headers := msg.Headers
		msgCtx := prop.Extract(ctx, headerCarrier{headers: &headers})
		msgCtx, span := tr.Start(msgCtx, "kafka.consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
		err = h(msgCtx, msg)
		span.End()
		if err != nil {
			log.Error("handler error", zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				log.Info("commit interrupted by context cancel")
				return ctx.Err()
			}
			log.Warn("commit failed; will retry later", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }

// ProtoHandler decodes each message value into a fresh M before calling handle.
func ProtoHandler[M proto.Message](ctor func() M, handle func(context.Context, kafka.Message, M) error) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		m := ctor()
		if err := proto.Unmarshal(msg.Value, m); err != nil {
			return err
		}
		return handle(ctx, msg, m)
	}
}
