package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwords-report/archive"
	"adwords-report/auth"
	"adwords-report/logging"
	"adwords-report/metrics"
	"adwords-report/report"
	"adwords-report/worker"
)

const (
	secret    = "gateway-secret"
	reportXML = `<report><table><columns><column name="Id"/><column name="Clicks"/></columns>
<rows><row Id="1" Clicks="3"/><row Id="2" Clicks="5"/></rows></table></report>`
)

type stubFetcher struct {
	mu    sync.Mutex
	calls []report.Descriptor
}

func (f *stubFetcher) Fetch(_ context.Context, d report.Descriptor) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, d)
	return []byte(reportXML), nil
}

type gateway struct {
	srv     *Server
	ts      *httptest.Server
	fetcher *stubFetcher
	store   *archive.Store
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	dir := t.TempDir()
	access, err := logging.NewLogger(filepath.Join(dir, "log"), "access.log")
	require.NoError(t, err)
	t.Cleanup(func() { access.Close() })

	store, err := archive.Open(context.Background(), "sqlite", filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &stubFetcher{}
	m := metrics.New("test")
	pool := worker.NewPool(f, filepath.Join(dir, "reports"), access, worker.WithArchive(store), worker.WithObserver(m))
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx, 1)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})

	srv := &Server{Secret: secret, Pool: pool, Runs: store, Metrics: m.Handler(), Access: access}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &gateway{srv: srv, ts: ts, fetcher: f, store: store}
}

func token(t *testing.T, subject string, admin bool) string {
	t.Helper()
	tok, err := auth.GenerateJWT(secret, subject, admin, 5)
	require.NoError(t, err)
	return tok
}

func (g *gateway) do(t *testing.T, method, path, tok, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, g.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (g *gateway) execute(t *testing.T, tok, body string) string {
	t.Helper()
	resp := g.do(t, http.MethodPost, "/api/reports/execute", tok, body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id, _ := decode(t, resp)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func (g *gateway) awaitStatus(t *testing.T, tok, id string, want worker.ReportStatus) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := g.do(t, http.MethodGet, "/api/reports/status?id="+id, tok, "")
		last := decode(t, resp)
		if last["status"] == string(want) {
			return last
		}
		if time.Now().After(deadline) {
			t.Fatalf("report %s: status %v, want %s", id, last["status"], want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (g *gateway) runs(t *testing.T, tok, query string) []map[string]any {
	t.Helper()
	resp := g.do(t, http.MethodGet, "/api/reports/runs"+query, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	return runs
}

func TestRequiresBearerToken(t *testing.T) {
	g := newGateway(t)

	resp := g.do(t, http.MethodPost, "/api/reports/execute", "", `{"job_id":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other, err := auth.GenerateJWT("other-secret", "alice", false, 5)
	require.NoError(t, err)
	resp = g.do(t, http.MethodGet, "/api/reports/status?id=x", other, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExecuteValidatesBody(t *testing.T) {
	g := newGateway(t)
	tok := token(t, "alice", false)

	for name, body := range map[string]string{
		"bad json":   `{`,
		"no id":      `{"format":"csv"}`,
		"both ids":   `{"job_id":"1","definition_id":"2"}`,
		"bad format": `{"job_id":"1","format":"pdf"}`,
		"blank id":   `{"job_id":"   "}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := g.do(t, http.MethodPost, "/api/reports/execute", tok, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestExecuteAndDownloadCSV(t *testing.T) {
	g := newGateway(t)
	tok := token(t, "alice", false)

	id := g.execute(t, tok, `{"job_id":"42","format":"csv"}`)
	st := g.awaitStatus(t, tok, id, worker.StatusComplete)
	assert.EqualValues(t, 2, st["rows"])

	resp := g.do(t, http.MethodGet, "/api/reports/download?id="+id, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report_"+id+".csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Id,Clicks\n1,3\n2,5\n", string(body))

	require.Len(t, g.fetcher.calls, 1)
	assert.Equal(t, report.ForJob("42"), g.fetcher.calls[0])
}

func TestDownloadTypeMustMatch(t *testing.T) {
	g := newGateway(t)
	tok := token(t, "alice", false)

	id := g.execute(t, tok, `{"definition_id":"7","format":"xml"}`)
	g.awaitStatus(t, tok, id, worker.StatusComplete)

	resp := g.do(t, http.MethodGet, "/api/reports/download?id="+id+"&type=csv", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/reports/download?id="+id+"&type=xml", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
}

func TestOtherUsersCannotSeeReport(t *testing.T) {
	g := newGateway(t)
	alice := token(t, "alice", false)
	bob := token(t, "bob", false)
	admin := token(t, "root", true)

	id := g.execute(t, alice, `{"job_id":"1"}`)
	g.awaitStatus(t, alice, id, worker.StatusComplete)

	resp := g.do(t, http.MethodGet, "/api/reports/status?id="+id, bob, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = g.do(t, http.MethodGet, "/api/reports/download?id="+id, bob, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/reports/download?id="+id, admin, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExpiredReportIsGone(t *testing.T) {
	g := newGateway(t)
	tok := token(t, "alice", false)

	id := g.execute(t, tok, `{"job_id":"1"}`)
	g.awaitStatus(t, tok, id, worker.StatusComplete)

	g.srv.MaxAge = time.Nanosecond
	resp := g.do(t, http.MethodGet, "/api/reports/status?id="+id, tok, "")
	assert.Equal(t, string(worker.StatusExpired), decode(t, resp)["status"])

	resp = g.do(t, http.MethodGet, "/api/reports/download?id="+id, tok, "")
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestUnknownReport(t *testing.T) {
	g := newGateway(t)
	tok := token(t, "alice", false)

	resp := g.do(t, http.MethodGet, "/api/reports/status?id=nope", tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown", decode(t, resp)["status"])

	resp = g.do(t, http.MethodGet, "/api/reports/status", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunsAreScopedToOwner(t *testing.T) {
	g := newGateway(t)
	alice := token(t, "alice", false)
	bob := token(t, "bob", false)
	admin := token(t, "root", true)

	a := g.execute(t, alice, `{"job_id":"1"}`)
	g.awaitStatus(t, alice, a, worker.StatusComplete)
	b := g.execute(t, bob, `{"definition_id":"2","format":"xlsx"}`)
	g.awaitStatus(t, bob, b, worker.StatusComplete)

	assert.Len(t, g.runs(t, admin, ""), 2)
	assert.Len(t, g.runs(t, admin, "?owner=bob"), 1)

	runs := g.runs(t, alice, "?owner=bob")
	require.Len(t, runs, 1)
	assert.Equal(t, a, runs[0]["id"])
	assert.Equal(t, "alice", runs[0]["owner"])

	resp := g.do(t, http.MethodGet, "/api/reports/runs?limit=zero", alice, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsAndHealth(t *testing.T) {
	g := newGateway(t)

	resp := g.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	resp = g.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_")
}
