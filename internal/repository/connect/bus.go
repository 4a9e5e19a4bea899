package connect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/config/common"
	"github.com/NordCoder/ghbridge/internal/repository/kafka"
	"github.com/NordCoder/ghbridge/internal/repository/redis"
)

// OpenBus connects the transport selected by cfg.Driver.
func OpenBus(ctx context.Context, cfg common.Bus, log *zap.Logger) (bus.Bus, error) {
	switch cfg.Driver {
	case common.DriverMemory:
		return bus.NewMemory(log, cfg.RequestTimeout), nil
	case common.DriverKafka:
		return kafka.NewBus(ctx, kafka.BusConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        cfg.Kafka.GroupID,
			FromBeginning:  cfg.Kafka.FromBeginning,
			Partitions:     cfg.Kafka.Partitions,
			RequestTimeout: cfg.RequestTimeout,
			PublishRetries: cfg.PublishRetries,
		}, log)
	case common.DriverRedis:
		return redis.NewBus(ctx, redis.Config{
			URL:            cfg.Redis.URL,
			Prefix:         cfg.Redis.Prefix,
			PoolSize:       cfg.Redis.PoolSize,
			RequestTimeout: cfg.RequestTimeout,
			PublishRetries: cfg.PublishRetries,
		}, log)
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.Driver)
	}
}
