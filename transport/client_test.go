package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwords-report/report"
)

func TestGet_SendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<report/>"))
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Get(context.Background(), srv.URL+"/dl?__rd=5", map[string]string{
		"Authorization":    "GoogleLogin auth=T",
		"clientCustomerId": "123",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<report/>", string(resp.Body))
	assert.Equal(t, "GoogleLogin auth=T", got.Get("Authorization"))
	assert.Equal(t, "123", got.Get("clientCustomerId"))
}

func TestGet_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad definition", http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "bad definition")
}

func TestPost_SendsBody(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/xml; charset=utf-8", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	_, err := New().Post(context.Background(), srv.URL, map[string]string{"Content-Type": "text/xml; charset=utf-8"}, []byte("<x/>"))
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(body))
}

func TestGet_ClosedServerIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New().Get(context.Background(), url, nil)
	var ce *report.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.MethodGet, ce.Op)
	assert.True(t, report.IsTransient(err))
}

func TestGet_ContextErrorIsReturnedAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New().Get(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, report.IsTransient(err))
}

func TestGet_RequestErrorsAreNotTransient(t *testing.T) {
	for _, bad := range []string{"ftp://example.com/report.xml", "http://[::1/report", "://missing-scheme"} {
		_, err := New().Get(context.Background(), bad, nil)
		require.Error(t, err, bad)
		var ce *report.ConnectionError
		assert.False(t, errors.As(err, &ce), "%s: %v", bad, err)
		assert.False(t, report.IsTransient(err), bad)
	}
}

func TestGet_ClientTimeoutIsConnectionError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(WithTimeout(30*time.Millisecond)).Get(context.Background(), srv.URL, nil)
	assert.True(t, report.IsTransient(err), "%v", err)
}

func TestGet_DroppedConnectionIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\npartial"))
		conn.Close()
	}))
	defer srv.Close()

	_, err := New().Get(context.Background(), srv.URL, nil)
	assert.True(t, report.IsTransient(err), "%v", err)
}
