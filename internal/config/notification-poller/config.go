package notification_poller_config

import (
	"time"

	"github.com/NordCoder/ghbridge/internal/config/common"
)

type GitHub struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type Poller struct {
	MinInterval       time.Duration `mapstructure:"min_interval"`
	EmptyBackoff      time.Duration `mapstructure:"empty_backoff"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency"`
	EnrichCacheTTL    time.Duration `mapstructure:"enrich_cache_ttl"`
	Sender            string        `mapstructure:"sender"`
}

type Config struct {
	App    common.App    `mapstructure:"app"`
	Server common.Server `mapstructure:"server"`
	OTEL   common.OTEL   `mapstructure:"otel"`
	Log    common.Log    `mapstructure:"log"`
	Bus    common.Bus    `mapstructure:"bus"`
	GitHub GitHub        `mapstructure:"github"`
	Poller Poller        `mapstructure:"poller"`
}
