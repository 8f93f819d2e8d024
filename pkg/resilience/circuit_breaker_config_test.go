package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/observability"
)

func TestDefaultManagerConfigsCoversCoreIOBoundaries(t *testing.T) {
	configs := DefaultManagerConfigs()
	require.Contains(t, configs, "opstore_postgres")
	require.Contains(t, configs, "resource_s3")

	logger := observability.NewLogger("test")
	metrics := observability.NewNoOpMetricsClient()

	mgr := NewCircuitBreakerManager(logger, metrics, configs)
	cb := mgr.GetCircuitBreaker("opstore_postgres")
	assert.Equal(t, "opstore_postgres", cb.name)
}

func TestCircuitBreakerManagerFallsBackForUnknownService(t *testing.T) {
	logger := observability.NewLogger("test")
	metrics := observability.NewNoOpMetricsClient()

	mgr := NewCircuitBreakerManager(logger, metrics, nil)
	cb := mgr.GetCircuitBreaker("some_other_service")
	assert.NotNil(t, cb)
}
