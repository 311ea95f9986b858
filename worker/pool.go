package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"adwords-report/archive"
	"adwords-report/logging"
	"adwords-report/report"
	"adwords-report/utils"
)

// Fetcher downloads a report. *report.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, d report.Descriptor) ([]byte, error)
}

// Archiver records finished runs. *archive.Store implements it.
type Archiver interface {
	Record(ctx context.Context, r archive.Run) error
}

// Observer receives queue and run metrics. *metrics.Metrics implements it.
type Observer interface {
	SetQueueLength(n int)
	ObserveRun(status string)
}

// Pool runs queued report requests on a fixed number of workers, oldest
// first.
type Pool struct {
	fetcher  Fetcher
	dir      string
	logger   *logging.Logger
	archive  Archiver
	observer Observer
	timeout  time.Duration
	idle     time.Duration

	pending sync.Map // id => *ReportRequest
	results sync.Map // id => *ReportResult

	mu    sync.Mutex
	order []string
	wg    sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithArchive records every finished run in a.
func WithArchive(a Archiver) Option {
	return func(p *Pool) { p.archive = a }
}

// WithObserver reports queue length and run outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// WithRunTimeout bounds a single request, polling included. 0 means no
// bound.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Pool) { p.timeout = d }
}

// NewPool stores report files under dir and logs runs to logger.
func NewPool(f Fetcher, dir string, logger *logging.Logger, opts ...Option) *Pool {
	p := &Pool{
		fetcher: f,
		dir:     dir,
		logger:  logger,
		idle:    300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit queues req and returns its id. An id and creation time are
// assigned when missing.
func (p *Pool) Submit(req *ReportRequest) string {
	if req.ID == "" {
		req.ID = utils.GenerateRequestID()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	p.pending.Store(req.ID, req)
	p.mu.Lock()
	p.order = append(p.order, req.ID)
	n := len(p.order)
	p.mu.Unlock()
	if p.observer != nil {
		p.observer.SetQueueLength(n)
	}
	return req.ID
}

// next removes and returns the oldest queued id, or "" when the queue is
// empty.
func (p *Pool) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return ""
	}
	id := p.order[0]
	p.order = p.order[1:]
	if p.observer != nil {
		p.observer.SetQueueLength(len(p.order))
	}
	return id
}

// QueueLength returns the number of waiting requests.
func (p *Pool) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Status returns the state of request id. Queued requests are reported as
// waiting.
func (p *Pool) Status(id string) (*ReportResult, bool) {
	if v, ok := p.pending.Load(id); ok {
		req := v.(*ReportRequest)
		return &ReportResult{Status: StatusWaiting, Format: req.Format, Owner: req.Owner, CreatedAt: req.CreatedAt}, true
	}
	if v, ok := p.results.Load(id); ok {
		rr := *v.(*ReportResult)
		return &rr, true
	}
	return nil, false
}

// Start launches n workers that stop when ctx is done. Wait blocks until
// they have returned.
func (p *Pool) Start(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.work(ctx)
		}()
	}
}

// Wait blocks until every worker started by Start has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context) {
	for {
		id := p.next()
		if id == "" {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.idle):
			}
			continue
		}
		v, ok := p.pending.Load(id)
		if !ok {
			continue
		}
		req := v.(*ReportRequest)
		p.results.Store(id, &ReportResult{Status: StatusProcessing, Format: req.Format, Owner: req.Owner, CreatedAt: req.CreatedAt})
		p.pending.Delete(id)
		p.logger.Write("[START]", "id", id, "owner", req.Owner, "variant", req.Descriptor().Variant())

		res := p.Process(ctx, req)
		p.results.Store(id, res)
	}
}

// Process runs one request to completion and returns its result. The
// report is stored under the pool directory as <id>.<format>.
func (p *Pool) Process(ctx context.Context, req *ReportRequest) *ReportResult {
	res := &ReportResult{Format: req.Format, Owner: req.Owner, CreatedAt: req.CreatedAt}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	path, rows, size, err := p.run(ctx, req)
	res.FinishedAt = time.Now()
	if err != nil {
		res.Status = StatusError
		res.ErrorMsg = errorMessage(err)
		p.logger.Write("[FAIL]", "id", req.ID, "error", err)
	} else {
		res.Status = StatusComplete
		res.Path, res.Rows, res.Bytes = path, rows, size
		p.logger.Write("[COMPLETE]", "id", req.ID, "rows", rows, "file", path)
	}
	p.record(ctx, req, res)
	return res
}

func (p *Pool) run(ctx context.Context, req *ReportRequest) (string, int, int64, error) {
	data, err := p.fetcher.Fetch(ctx, req.Descriptor())
	if err != nil {
		return "", 0, 0, err
	}
	if err := utils.EnsureDirExists(p.dir); err != nil {
		return "", 0, 0, fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(p.dir, req.ID+"."+string(req.Format))

	if req.Format == FormatXML {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", 0, 0, fmt.Errorf("write report: %w", err)
		}
		return path, 0, int64(len(data)), nil
	}

	rep, err := report.ParseTabular(data)
	if err != nil {
		return "", 0, 0, err
	}
	var buf bytes.Buffer
	if req.Format == FormatXLSX {
		err = rep.WriteXLSX(&buf, report.DefaultSheetName)
	} else {
		err = rep.WriteCSV(&buf)
	}
	if err != nil {
		return "", 0, 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", 0, 0, fmt.Errorf("write report: %w", err)
	}
	return path, len(rep.Rows), int64(buf.Len()), nil
}

func (p *Pool) record(ctx context.Context, req *ReportRequest, res *ReportResult) {
	if p.observer != nil {
		p.observer.ObserveRun(string(res.Status))
	}
	if p.archive == nil {
		return
	}
	d := req.Descriptor()
	reportID := d.JobID
	if d.DefinitionID != "" {
		reportID = d.DefinitionID
	}
	// The run outcome is archived even when ctx has been cancelled.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := p.archive.Record(actx, archive.Run{
		ID:         req.ID,
		Variant:    d.Variant(),
		ReportID:   reportID,
		Format:     string(req.Format),
		Status:     string(res.Status),
		Path:       res.Path,
		Bytes:      res.Bytes,
		Error:      res.ErrorMsg,
		Owner:      req.Owner,
		CreatedAt:  req.CreatedAt,
		FinishedAt: res.FinishedAt,
	})
	if err != nil {
		p.logger.Write("[ARCHIVE_FAIL]", "id", req.ID, "error", err)
	}
}

// Expire marks complete results older than maxAge as expired and removes
// their files. It returns the number of expired results.
func (p *Pool) Expire(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	n := 0
	p.results.Range(func(k, v any) bool {
		rr := v.(*ReportResult)
		if rr.Status != StatusComplete || rr.FinishedAt.After(cutoff) {
			return true
		}
		if rr.Path != "" {
			if err := os.Remove(rr.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				p.logger.Write("[EXPIRE_FAIL]", "id", k, "error", err)
				return true
			}
		}
		expired := *rr
		expired.Status = StatusExpired
		expired.Path = ""
		p.results.Store(k, &expired)
		n++
		return true
	})
	if n > 0 {
		p.logger.Write("[EXPIRE]", "count", n)
	}
	return n
}

// errorMessage is the text shown to gateway clients.
func errorMessage(err error) string {
	var rf *report.RemoteFault
	switch {
	case errors.Is(err, report.ErrReportGenerationFailed):
		return "report generation failed"
	case errors.As(err, &rf):
		return rf.Error()
	case report.IsTransient(err):
		return "connection error, try again later"
	case errors.Is(err, context.DeadlineExceeded):
		return "report not ready before the run timeout"
	}
	return err.Error()
}
