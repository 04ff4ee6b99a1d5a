package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type readiness struct {
	ok  bool
	err error
}

func (r *readiness) Initialized(context.Context) (bool, error) { return r.ok, r.err }

func TestServerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultServerConfig().Validate())

	cfg := DefaultServerConfig()
	cfg.Address = ""
	assert.False(t, cfg.Enabled())
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Address = "50051"
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Address = ":50051"
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.MaxRecvMsgSize = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.CheckInterval = 0
	require.Error(t, cfg.Validate())
}

func check(t *testing.T, addr, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthReflectsReadiness(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Address = "127.0.0.1:0"
	ready := &readiness{}

	s, err := NewServer(cfg, ready, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	addr := s.Address()
	require.NotEmpty(t, addr)
	require.Error(t, s.Start(context.Background()))

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, addr, ServiceName))

	ready.ok = true
	s.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, addr, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, addr, ""))

	ready.err = errors.New("store unavailable")
	s.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, addr, ServiceName))

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Address = "127.0.0.1:0"
	s, err := NewServer(cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, s.IsRunning, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.IsRunning())
}
