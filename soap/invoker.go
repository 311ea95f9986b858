// Package soap implements report.Invoker over document/literal SOAP 1.1.
// Request payloads are plain maps (or ordered Fields); responses are
// returned as nested maps keyed in the session naming style.
package soap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"adwords-report/naming"
	"adwords-report/report"
)

// Poster sends a request body and returns the raw response.
type Poster interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*report.Response, error)
}

// Invoker is bound to one service. It is safe for concurrent use.
type Invoker struct {
	poster  Poster
	service Service
	header  Header
	style   naming.Style
	logger  *slog.Logger
}

var _ report.Invoker = (*Invoker)(nil)

// Option configures the Invoker.
type Option func(*Invoker)

// WithNamingStyle sets the key style of decoded responses.
func WithNamingStyle(s naming.Style) Option {
	return func(i *Invoker) { i.style = s }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// New returns an Invoker posting to svc through p.
func New(p Poster, svc Service, h Header, opts ...Option) (*Invoker, error) {
	if p == nil {
		return nil, fmt.Errorf("soap: poster is required")
	}
	if svc.Host == "" || svc.Version == "" || svc.Name == "" {
		return nil, fmt.Errorf("soap: incomplete service %+v", svc)
	}
	inv := &Invoker{
		poster:  p,
		service: svc,
		header:  h,
		style:   naming.Camel,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Service returns the service the Invoker is bound to.
func (i *Invoker) Service() Service {
	return i.service
}

// Invoke sends operation with request. A SOAP fault, or an HTTP error
// without a parsable envelope, is returned as *report.RemoteFault.
func (i *Invoker) Invoke(ctx context.Context, operation string, request report.Payload) (report.Payload, error) {
	var body any
	if request != nil {
		body = request
	}
	return i.InvokeFields(ctx, operation, body)
}

// InvokeFields is Invoke for a request given as ordered Fields or a map.
func (i *Invoker) InvokeFields(ctx context.Context, operation string, request any) (report.Payload, error) {
	envelope, err := buildEnvelope(i.service, i.header, operation, request)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := i.poster.Post(ctx, i.service.URL(), map[string]string{
		"Content-Type": "text/xml; charset=utf-8",
		"SOAPAction":   `""`,
	}, envelope)
	if err != nil {
		return nil, err
	}
	log := i.logger.With("service", i.service.Name, "operation", operation, "status", resp.StatusCode, "duration", time.Since(start))

	payload, fault, decodeErr := decodeResponse(operation, resp.Body)
	switch {
	case fault != nil:
		log.WarnContext(ctx, "api fault", "message", fault.Message, "errors", len(fault.Errors))
		return nil, fault
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := strings.TrimSpace(string(resp.Body))
		if msg == "" || decodeErr == nil {
			msg = fmt.Sprintf("%s returned HTTP %d", operation, resp.StatusCode)
		}
		return nil, &report.RemoteFault{Code: resp.StatusCode, Message: msg}
	case decodeErr != nil:
		return nil, &report.ProtocolError{Op: operation, Detail: decodeErr.Error()}
	}
	log.DebugContext(ctx, "operation done")
	return i.style.Shape(payload).(map[string]any), nil
}
