package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthFollowsStorePing(t *testing.T) {
	ctx := context.Background()
	var pingErr error
	s := NewGRPCServer(PingFunc(func(ctx context.Context) error { return pingErr }), logger.NewNop())

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		res, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return res.Status
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())

	s.check(ctx, time.Second)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status())

	pingErr = errors.New("connection refused")
	s.check(ctx, time.Second)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())
}
