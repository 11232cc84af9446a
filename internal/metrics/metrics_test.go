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

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/faq", "200"))
	ObserveHTTP("get", "/api/v1/faq", http.StatusOK, 20*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/faq", "200"))
	assert.Equal(t, before+1, after)
}

func TestTrackInFlight(t *testing.T) {
	done := TrackInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(httpInFlight))
}

func TestHandlerExposesCounters(t *testing.T) {
	RecordTokenIssued("ACCESS")
	RecordTask("mail", 0, true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lagimmo_auth_tokens_issued_total{kind="ACCESS"}`)
	assert.Contains(t, rec.Body.String(), `lagimmo_tasks_processed_total{success="true",type="mail"}`)
}
