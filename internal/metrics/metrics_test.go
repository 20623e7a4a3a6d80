package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLedgerTransition(t *testing.T) {
	before := testutil.ToFloat64(ledgerTransitions.WithLabelValues("deposit", "approved"))
	RecordLedgerTransition("deposit", "approved")
	after := testutil.ToFloat64(ledgerTransitions.WithLabelValues("deposit", "approved"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/packages", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invest_tracker_http_requests_total")
}
