package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks the exposition output for a sample whose labels
// contain the given pattern. OTel scope labels may surround it.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()

	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)
	assert.NotPanics(t, func() {
		ctx := context.Background()
		noOp.RecordOperation(ctx, "appointments", "schedule", "success")
		noOp.RecordDuration(ctx, "appointments", "schedule", time.Second, "success")
		noOp.RecordAttempts(ctx, "delivery", "dispatch.pe", 3, "dead_letter")
	})
}

func TestBusinessMetrics_Exposition(t *testing.T) {
	provider, err := NewProvider("saga_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "saga_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "appointments", "schedule", "success")
	bm.RecordOperation(ctx, "appointments", "schedule", "success")
	bm.RecordOperation(ctx, "appointments", "schedule", "error")
	bm.RecordOperation(ctx, "delivery", "completion", "dead_letter")
	bm.RecordDuration(ctx, "appointments", "schedule", 40*time.Millisecond, "success")
	bm.RecordDuration(ctx, "appointments", "schedule", 60*time.Millisecond, "success")
	bm.RecordAttempts(ctx, "delivery", "dispatch.pe", 1, "success")
	bm.RecordAttempts(ctx, "delivery", "dispatch.pe", 5, "dead_letter")

	output := scrape(t, provider)

	assertMetricLine(t, output, `saga_test_operations_total`,
		`domain="appointments".*operation="schedule".*status="success"`, `2`)
	assertMetricLine(t, output, `saga_test_operations_total`,
		`domain="appointments".*operation="schedule".*status="error"`, `1`)
	assertMetricLine(t, output, `saga_test_operations_total`,
		`domain="delivery".*operation="completion".*status="dead_letter"`, `1`)
	assertMetricLine(t, output, `saga_test_operation_duration_seconds_count`,
		`domain="appointments".*operation="schedule".*status="success"`, `2`)
	assertMetricLine(t, output, `saga_test_delivery_attempts_count`,
		`domain="delivery".*operation="dispatch.pe".*status="dead_letter"`, `1`)
	assertMetricLine(t, output, `saga_test_delivery_attempts_sum`,
		`domain="delivery".*operation="dispatch.pe".*status="dead_letter"`, `5`)
}
