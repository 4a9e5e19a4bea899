package common

import (
	"strings"

	"github.com/spf13/viper"
)

// Ports a service listens on unless configured otherwise.
type Ports struct {
	HTTP    string
	GRPC    string
	Metrics string
}

// NewViper returns a viper instance reading path (if any) with the shared
// sections defaulted for service. Environment variables override keys with
// dots replaced by underscores, e.g. BUS_KAFKA_TOPIC.
func NewViper(path, service string, ports Ports) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", service)
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.http_addr", ports.HTTP)
	v.SetDefault("server.grpc_addr", ports.GRPC)
	v.SetDefault("server.metrics_addr", ports.Metrics)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", service)
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("bus.driver", DriverKafka)
	v.SetDefault("bus.request_timeout", "30s")
	v.SetDefault("bus.publish_retries", 3)
	v.SetDefault("bus.kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("bus.kafka.topic", "ghbridge.events")
	v.SetDefault("bus.kafka.group_id", service)
	v.SetDefault("bus.kafka.partitions", 3)
	v.SetDefault("bus.redis.url", "redis://localhost:6379/0")
	v.SetDefault("bus.redis.prefix", "ghbridge:")
	v.SetDefault("bus.redis.pool_size", 10)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
