package report

import (
	"context"
	"sync"
	"time"

	"adwords-report/auth"
	"adwords-report/naming"
)

// scriptedInvoker answers getReportJobStatus from a fixed status sequence
// and getReportDownloadUrl with a fixed URL.
type scriptedInvoker struct {
	mu          sync.Mutex
	statuses    []Status
	downloadURL string
	style       naming.Style
	err         error
	calls       []string
}

func (s *scriptedInvoker) Invoke(_ context.Context, op string, req Payload) (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	if s.err != nil {
		return nil, s.err
	}
	switch op {
	case opGetReportJobStatus:
		idx := s.statusCalls() - 1
		if idx >= len(s.statuses) {
			idx = len(s.statuses) - 1
		}
		return Payload{s.style.Key(fieldJobStatus): string(s.statuses[idx])}, nil
	case opGetReportDownloadURL:
		return Payload{s.style.Key(fieldDownloadURL): s.downloadURL}, nil
	}
	return Payload{}, nil
}

func (s *scriptedInvoker) statusCalls() int {
	n := 0
	for _, c := range s.calls {
		if c == opGetReportJobStatus {
			n++
		}
	}
	return n
}

func (s *scriptedInvoker) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

type getCall struct {
	url     string
	headers map[string]string
}

type stubHTTP struct {
	mu     sync.Mutex
	status int
	body   []byte
	err    error
	calls  []getCall
}

func (h *stubHTTP) Get(_ context.Context, u string, headers map[string]string) (*Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, getCall{url: u, headers: headers})
	if h.err != nil {
		return nil, h.err
	}
	status := h.status
	if status == 0 {
		status = 200
	}
	return &Response{StatusCode: status, Body: h.body}, nil
}

type recordedEvents struct {
	polls     []Status
	downloads []error
}

func (r *recordedEvents) ObservePoll(s Status) { r.polls = append(r.polls, s) }
func (r *recordedEvents) ObserveDownload(_ string, _ int, err error) {
	r.downloads = append(r.downloads, err)
}

// newTestClient returns a client whose sleeps complete immediately and are
// counted in *sleeps.
func newTestClient(t interface{ Fatalf(string, ...any) }, inv Invoker, hc HTTPClient, sleeps *int, opts ...Option) *Client {
	c, err := New(inv, hc, auth.Context{Token: "T", ClientCustomerID: "123"}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.after = func(time.Duration) <-chan time.Time {
		*sleeps++
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return c
}
