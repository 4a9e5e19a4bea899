package webhook_gateway_config

import (
	"os"
	"strings"
	"time"

	"github.com/NordCoder/ghbridge/internal/config/common"
)

type Webhook struct {
	Secret         string        `mapstructure:"secret"`
	SecretFile     string        `mapstructure:"secret_file"`
	DedupWindow    time.Duration `mapstructure:"dedup_window"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	Sender         string        `mapstructure:"sender"`
}

// SecretBytes returns the webhook secret, reading SecretFile when Secret is empty.
func (w Webhook) SecretBytes() ([]byte, error) {
	if w.Secret != "" || w.SecretFile == "" {
		return []byte(w.Secret), nil
	}
	b, err := os.ReadFile(w.SecretFile)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(b))), nil
}

type OAuth struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	AuthURL      string        `mapstructure:"auth_url"`
	TokenURL     string        `mapstructure:"token_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type Config struct {
	App     common.App    `mapstructure:"app"`
	Server  common.Server `mapstructure:"server"`
	OTEL    common.OTEL   `mapstructure:"otel"`
	Log     common.Log    `mapstructure:"log"`
	Bus     common.Bus    `mapstructure:"bus"`
	Webhook Webhook       `mapstructure:"webhook"`
	OAuth   OAuth         `mapstructure:"oauth"`
}
