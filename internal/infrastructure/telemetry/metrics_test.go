package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RunFinished(t *testing.T) {
	m := NewMetrics()

	m.RunFinished("SUCCEEDED", "MANUAL", 2*time.Second)
	m.RunFinished("SUCCEEDED", "MANUAL", time.Second)
	m.RunFinished("FAILED", "SCHEDULED", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("SUCCEEDED", "MANUAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("FAILED", "SCHEDULED")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.runDuration))
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics()

	m.SetQueueDepth(7)
	m.RunStarted()
	m.RunStarted()
	m.RunEnded()

	assert.Equal(t, 7.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRuns))
}

func TestMetrics_HTTPAndMail(t *testing.T) {
	m := NewMetrics()

	m.HTTPRequest("GET", "/api/ventures/:id", 404, 10*time.Millisecond)
	m.HTTPRequest("GET", "/api/ventures/:id", 200, 10*time.Millisecond)
	m.EmailSent(true)
	m.EmailSent(false)
	m.EmailSent(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/ventures/:id", "4xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.emailsTotal.WithLabelValues("failed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.StepExecuted("SEND_EMAIL", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `miv_workflow_steps_total{outcome="ok",type="SEND_EMAIL"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "2xx", statusText(204))
	assert.Equal(t, "3xx", statusText(302))
	assert.Equal(t, "4xx", statusText(409))
	assert.Equal(t, "5xx", statusText(503))
}
