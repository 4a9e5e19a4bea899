package common

import (
	"fmt"
	"time"

	"github.com/NordCoder/ghbridge/internal/obs"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc OTEL) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "ghbridge/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

const (
	DriverMemory = "memory"
	DriverKafka  = "kafka"
	DriverRedis  = "redis"
)

type Kafka struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	FromBeginning bool     `mapstructure:"from_beginning"`
	Partitions    int      `mapstructure:"partitions"`
}

type Redis struct {
	URL      string `mapstructure:"url"`
	Prefix   string `mapstructure:"prefix"`
	PoolSize int    `mapstructure:"pool_size"`
}

type Bus struct {
	Driver         string        `mapstructure:"driver"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PublishRetries int           `mapstructure:"publish_retries"`
	Kafka          Kafka         `mapstructure:"kafka"`
	Redis          Redis         `mapstructure:"redis"`
}

func (b Bus) Validate() error {
	switch b.Driver {
	case DriverMemory:
	case DriverKafka:
		if len(b.Kafka.Brokers) == 0 || b.Kafka.Topic == "" {
			return ErrConfig("bus.kafka.brokers and bus.kafka.topic are required")
		}
	case DriverRedis:
		if b.Redis.URL == "" {
			return ErrConfig("bus.redis.url is required")
		}
	default:
		return ErrConfig(fmt.Sprintf("unknown bus.driver %q", b.Driver))
	}
	return nil
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
