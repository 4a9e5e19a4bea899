package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	config "github.com/NordCoder/ghbridge/internal/config/notification-poller"
	"github.com/NordCoder/ghbridge/internal/obs"
	"github.com/NordCoder/ghbridge/internal/repository/connect"
	"github.com/NordCoder/ghbridge/internal/repository/github"
	poller "github.com/NordCoder/ghbridge/internal/services/notification-poller"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/notification-poller.yaml", "path to the YAML config")
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
	gh := github.NewFactory(github.Config{
		BaseURL:           cfg.GitHub.BaseURL,
		UserAgent:         cfg.GitHub.UserAgent,
		Timeout:           cfg.GitHub.Timeout,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	}, l)
	p := poller.New(poller.Config{
		MinInterval:       cfg.Poller.MinInterval,
		EmptyBackoff:      cfg.Poller.EmptyBackoff,
		CallTimeout:       cfg.GitHub.Timeout,
		EnrichConcurrency: cfg.Poller.EnrichConcurrency,
		EnrichCacheTTL:    cfg.Poller.EnrichCacheTTL,
		Sender:            cfg.Poller.Sender,
	}, poller.Deps{
		Bus:    b,
		NewAPI: gh.API,
		Clock:  poller.SystemClock,
		Log:    l,
	})
	if err := poller.NewController(b, p, l).Register(root); err != nil {
		l.Fatal("subscribe commands", zap.Error(err))
	}

	// start
	if err := p.Start(root); err != nil {
		l.Fatal("poller start", zap.Error(err))
	}
	hs.MarkServing("notification-poller")

	<-root.Done()
	hs.Shutdown()
	p.Stop()

	grace := cfg.Server.GracefulTimeout
	if grace <= 0 {
		grace = 15 * time.Second
	}
	select {
	case <-p.Done():
	case <-time.After(grace):
		l.Warn("poller did not finish its current call in time")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
