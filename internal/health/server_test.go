package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T) (*Server, healthpb.HealthClient) {
	t.Helper()

	s := NewServer(nil)
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
	})
	return s, healthpb.NewHealthClient(conn)
}

func check(c healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	return resp.GetStatus(), err
}

func status(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	st, err := check(c, service)
	require.NoError(t, err)
	return st
}

func eventuallyStatus(t *testing.T, c healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	assert.Eventually(t, func() bool {
		st, err := check(c, ServiceName)
		return err == nil && st == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerReportsServing(t *testing.T) {
	_, c := startServer(t)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceName))
}

func TestSetServingToggles(t *testing.T) {
	s, c := startServer(t)

	s.SetServing(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ""))

	s.SetServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceName))
}

func TestWatchFollowsCheck(t *testing.T) {
	s, c := startServer(t)

	var failing atomic.Bool
	failing.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Watch(ctx, 5*time.Millisecond, func(context.Context) error {
		if failing.Load() {
			return errors.New("store unavailable")
		}
		return nil
	})

	eventuallyStatus(t, c, healthpb.HealthCheckResponse_NOT_SERVING)

	failing.Store(false)
	eventuallyStatus(t, c, healthpb.HealthCheckResponse_SERVING)
}
