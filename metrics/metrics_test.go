package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwords-report/report"
)

func TestObservePoll(t *testing.T) {
	m := New("test")
	m.ObservePoll(report.StatusPending)
	m.ObservePoll(report.StatusPending)
	m.ObservePoll(report.StatusCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.polls.WithLabelValues("Pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues("Completed")))
}

func TestObserveDownload(t *testing.T) {
	m := New("test")
	m.ObserveDownload("job", 2048, nil)
	m.ObserveDownload("definition", 0, &report.ConnectionError{Op: "GET", Err: io.ErrUnexpectedEOF})
	m.ObserveDownload("definition", 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues("job", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues("definition", "connection_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues("definition", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.downloadBytes))
}

func TestGatewayMetrics(t *testing.T) {
	m := New("test")
	m.SetQueueLength(3)
	m.ObserveRun("complete")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.queued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("complete")))
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.ObservePoll(report.StatusFailed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_job_status_polls_total{status="Failed"} 1`)
}
