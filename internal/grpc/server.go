package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe checks one backend. Its Name doubles as the health service name.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthServer reports SERVING for the overall service only while every
// probe passes. Each probe is also reported under its own name.
type HealthServer struct {
	health   *health.Server
	probes   []Probe
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewHealthServer(probes []Probe, interval time.Duration, logger *logrus.Logger) *HealthServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := &HealthServer{
		health:   health.NewServer(),
		probes:   probes,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probes {
		s.health.SetServingStatus(p.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

func (s *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.health)
}

// Run probes immediately and then every interval until ctx is done.
func (s *HealthServer) Run(ctx context.Context) {
	s.ProbeOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ProbeOnce(ctx)
		}
	}
}

func (s *HealthServer) ProbeOnce(ctx context.Context) bool {
	healthy := true
	for _, p := range s.probes {
		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.Check(probeCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.WithError(err).WithField("probe", p.Name).Warn("Health probe failed")
		}
		s.health.SetServingStatus(p.Name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	return healthy
}

func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
}
