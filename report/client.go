// Package report retrieves reports from the advertising API: it polls report
// jobs until they finish, downloads the result with the session credentials
// and reshapes the XML payload into delimited text or a spreadsheet.
//
// Every call blocks the calling goroutine until the report is available or
// ctx is done. Independent reports can be fetched concurrently from separate
// goroutines sharing one Client.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"adwords-report/auth"
	"adwords-report/naming"
)

// DefaultPollInterval is the pause between two job status queries.
const DefaultPollInterval = 30 * time.Second

// Client runs the report retrieval workflow against one API session.
type Client struct {
	invoker     Invoker
	http        HTTPClient
	auth        auth.Context
	style       naming.Style
	interval    time.Duration
	downloadURL string
	logger      *slog.Logger
	recorder    Recorder

	// after is replaced in tests to observe sleep cycles.
	after func(time.Duration) <-chan time.Time
}

// Option configures the Client during construction.
type Option func(*Client) error

// New returns a Client that invokes operations through inv and downloads
// through hc using creds.
func New(inv Invoker, hc HTTPClient, creds auth.Context, opts ...Option) (*Client, error) {
	if inv == nil {
		return nil, fmt.Errorf("report: invoker is required")
	}
	if hc == nil {
		return nil, fmt.Errorf("report: http client is required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		invoker:  inv,
		http:     hc,
		auth:     creds,
		style:    naming.Camel,
		interval: DefaultPollInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
		after:    time.After,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithNamingStyle sets the naming style the invoker uses for response fields.
func WithNamingStyle(s naming.Style) Option {
	return func(c *Client) error {
		c.style = s
		return nil
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("report: negative poll interval %s", d)
		}
		c.interval = d
		return nil
	}
}

// WithDownloadURL sets the report download base URL resolved for the
// session's environment and API version.
func WithDownloadURL(u string) Option {
	return func(c *Client) error {
		c.downloadURL = u
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithRecorder forwards workflow events to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) error {
		if r != nil {
			c.recorder = r
		}
		return nil
	}
}
