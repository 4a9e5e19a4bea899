package notification_poller_config

import (
	"github.com/NordCoder/ghbridge/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path, "notification-poller", common.Ports{
		GRPC:    ":9091",
		Metrics: ":8082",
	})

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.user_agent", "ghbridge-notification-poller")
	v.SetDefault("github.timeout", "15s")
	v.SetDefault("github.requests_per_second", 10.0)
	v.SetDefault("github.burst", 10)

	v.SetDefault("poller.min_interval", "45s")
	v.SetDefault("poller.empty_backoff", "5s")
	v.SetDefault("poller.enrich_concurrency", 1)
	v.SetDefault("poller.enrich_cache_ttl", "0s")
	v.SetDefault("poller.sender", "GithubWebhooks")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Bus.Validate(); err != nil {
		return nil, err
	}
	if cfg.Poller.EnrichConcurrency < 1 {
		cfg.Poller.EnrichConcurrency = 1
	}
	return &cfg, nil
}
