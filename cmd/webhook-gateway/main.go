package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	config "github.com/NordCoder/ghbridge/internal/config/webhook-gateway"
	"github.com/NordCoder/ghbridge/internal/obs"
	"github.com/NordCoder/ghbridge/internal/repository/connect"
	"github.com/NordCoder/ghbridge/internal/repository/github"
	gateway "github.com/NordCoder/ghbridge/internal/services/webhook-gateway"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/webhook-gateway.yaml", "path to the YAML config")
	pflag.Parse()

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// bus
	b, err := connect.OpenBus(root, cfg.Bus, l)
	if err != nil {
		l.Fatal("bus connect", zap.String("driver", cfg.Bus.Driver), zap.Error(err))
	}
	defer func() { _ = b.Close() }()

	// ops
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, nil, l)
	hs, err := obs.BootstrapGRPCHealth(cfg.Server.GRPCAddr, l)
	if err != nil {
		l.Fatal("grpc health", zap.Error(err))
	}

	// wiring
	secret, err := cfg.Webhook.SecretBytes()
	if err != nil {
		l.Fatal("webhook secret", zap.Error(err))
	}
	webhook := gateway.NewWebhookHandler(b, gateway.WebhookOptions{
		Secret:         secret,
		Sender:         cfg.Webhook.Sender,
		DedupWindow:    cfg.Webhook.DedupWindow,
		PublishTimeout: cfg.Webhook.PublishTimeout,
	}, l)
	exchanger := github.NewExchanger(github.OAuthConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		Timeout:      cfg.OAuth.Timeout,
	})
	oauth := gateway.NewOAuthHandler(b, exchanger, cfg.Webhook.Sender, l)
	srv := gateway.NewHTTPServer(cfg.Server, webhook, oauth)

	// start
	g, gctx := errgroup.WithContext(root)
	g.Go(func() error {
		l.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()

		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		err := srv.Shutdown(shCtx)
		webhook.Wait()
		_ = ms.Shutdown(shCtx)
		return err
	})
	hs.MarkServing("webhook-gateway")

	if err := g.Wait(); err != nil {
		l.Error("webhook-gateway stopped with error", zap.Error(err))
	}
	l.Info("bye")
}
