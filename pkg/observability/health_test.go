package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckerAggregatesStatus(t *testing.T) {
	hc := NewHealthChecker(nil, nil)
	hc.RegisterCheck("ok", NewServiceHealthCheck("ok", func(ctx context.Context) error { return nil }))
	hc.RegisterCheck("bad", NewServiceHealthCheck("bad", func(ctx context.Context) error { return errors.New("down") }))

	results := hc.RunChecks(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["ok"].Status)
	assert.Equal(t, StatusUnhealthy, results["bad"].Status)
	assert.False(t, hc.IsHealthy())

	agg := hc.GetAggregatedHealth()
	assert.Equal(t, StatusUnhealthy, agg.Status)
	assert.Contains(t, agg.Message, "1 components unhealthy")
}

func TestHealthCheckerEmptyIsHealthy(t *testing.T) {
	hc := NewHealthChecker(nil, nil)
	assert.True(t, hc.IsHealthy())
}
