package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("test.op", OutcomeOK))

	ObserveOperation("test.op", OutcomeOK, time.Now().Add(-250*time.Millisecond))

	after := testutil.ToFloat64(Operations.WithLabelValues("test.op", OutcomeOK))
	assert.Equal(t, before+1, after)
}

func TestIncDiscordRequest(t *testing.T) {
	before := testutil.ToFloat64(DiscordRequests.WithLabelValues("test"))
	IncDiscordRequest("test")
	IncDiscordRequest("test")
	assert.Equal(t, before+2, testutil.ToFloat64(DiscordRequests.WithLabelValues("test")))
}

func TestHandlerExposure(t *testing.T) {
	ObserveOperation("exposure", OutcomeDomain, time.Now())
	IncDiscordRequest("exposure")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, m := range []string{
		"guildboard_operations_total",
		"guildboard_operation_duration_seconds",
		"guildboard_discord_requests_total",
	} {
		assert.Contains(t, body, m)
	}
}
