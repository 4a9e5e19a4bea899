package webhook_gateway

import (
	"net/http"

	"github.com/NordCoder/ghbridge/internal/config/common"
	"github.com/NordCoder/ghbridge/internal/obs"
)

// NewMux routes the webhook to exactly "/" and the OAuth callback to GET /oauth.
func NewMux(webhook, oauth http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/{$}", webhook)
	mux.Handle("GET /oauth", oauth)
	return mux
}

func NewHTTPServer(cfg common.Server, webhook, oauth http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      obs.HTTPHandler(NewMux(webhook, oauth), "webhook-gateway"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
