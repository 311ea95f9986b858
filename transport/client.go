// Package transport performs the HTTP exchanges of the report client on top
// of resty. Network failures are reported as *report.ConnectionError, other
// request failures (bad URL, unsupported scheme) as plain errors; HTTP error
// statuses are returned to the caller untouched.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"adwords-report/report"
)

// DefaultTimeout bounds a single request when no other timeout is set.
const DefaultTimeout = 2 * time.Minute

// Client is safe for concurrent use.
type Client struct {
	rc      *resty.Client
	hc      *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ report.HTTPClient = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger routes request and resty logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client with DefaultTimeout.
func New(opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc != nil {
		c.rc = resty.NewWithClient(c.hc)
	} else {
		c.rc = resty.New()
	}
	c.rc.SetTimeout(c.timeout).SetLogger(restyLogger{c.logger})
	return c
}

// Get fetches url with headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*report.Response, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post sends body to url with headers.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*report.Response, error) {
	return c.do(ctx, http.MethodPost, url, headers, body)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*report.Response, error) {
	req := c.rc.R().
		SetContext(ctx).
		SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	res, err := req.Execute(method, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnContext(ctx, "request failed", "method", method, "url", url, "error", err)
		if !networkError(err) {
			return nil, fmt.Errorf("%s %s: %w", method, url, err)
		}
		return nil, &report.ConnectionError{Op: method, URL: url, Err: err}
	}
	c.logger.DebugContext(ctx, "request done",
		"method", method,
		"url", url,
		"status", res.StatusCode(),
		"bytes", len(res.Body()),
		"duration", time.Since(start),
	)
	return &report.Response{StatusCode: res.StatusCode(), Body: res.Body()}, nil
}

// networkError reports whether err happened on the wire (refused, reset,
// timed out, cut short) rather than while building the request.
func networkError(err error) bool {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return true
		}
		err = ue.Err
	}
	var ne net.Error
	return errors.As(err, &ne) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }
