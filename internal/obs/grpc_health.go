package obs

import (
	"errors"
	"fmt"
	"net"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer is the grpc.health.v1 endpoint used by orchestrator probes.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	ln     net.Listener
	log    *zap.Logger
}

// go-grpc-prometheus registers its default server metrics on the default registry.
var grpcMetrics = grpcprometheus.DefaultServerMetrics

// BootstrapGRPCHealth listens on addr and serves health checking and reflection.
// Every service starts NOT_SERVING until MarkServing.
func BootstrapGRPCHealth(addr string, l *zap.Logger) (*HealthServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	grpcMetrics.InitializeMetrics(srv)

	h := &HealthServer{srv: srv, health: hs, ln: ln, log: l}
	go func() {
		l.Info("grpc health listening", zap.String("addr", addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			l.Error("grpc health server error", zap.Error(err))
		}
	}()
	return h, nil
}

func (h *HealthServer) MarkServing(service string) {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if service != "" {
		h.health.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	}
}

// Shutdown flips every service to NOT_SERVING and drains open streams.
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
