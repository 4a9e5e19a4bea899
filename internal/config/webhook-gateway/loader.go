package webhook_gateway_config

import (
	"github.com/NordCoder/ghbridge/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path, "webhook-gateway", common.Ports{
		HTTP:    ":8080",
		GRPC:    ":9090",
		Metrics: ":8081",
	})

	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.secret_file", "")
	v.SetDefault("webhook.dedup_window", "1h")
	v.SetDefault("webhook.publish_timeout", "10s")
	v.SetDefault("webhook.sender", "GithubWebhooks")

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.auth_url", "")
	v.SetDefault("oauth.token_url", "")
	v.SetDefault("oauth.timeout", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Bus.Validate(); err != nil {
		return nil, err
	}
	secret, err := cfg.Webhook.SecretBytes()
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, common.ErrConfig("webhook.secret or webhook.secret_file is required")
	}
	return &cfg, nil
}
