// Package session wires a loaded configuration into a ready report client:
// HTTP transport, SOAP invoker bound to the version's report service, and the
// capability-checked extension methods.
package session

import (
	"fmt"
	"log/slog"

	"adwords-report/config"
	"adwords-report/extension"
	"adwords-report/metrics"
	"adwords-report/report"
	"adwords-report/soap"
	"adwords-report/transport"
)

// DefinitionService is the service report definitions are created with.
const DefinitionService = "ReportDefinitionService"

// Session is one authenticated API session.
type Session struct {
	Config  *config.Config
	HTTP    *transport.Client
	Table   extension.Table
	Client  *report.Client
	Reports *extension.ReportService

	poster soap.Poster
	logger *slog.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	poster  soap.Poster
	http    report.HTTPClient
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records polls and downloads in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTransport replaces the HTTP transport used for SOAP calls and
// downloads.
func WithTransport(p soap.Poster, hc report.HTTPClient) Option {
	return func(o *options) {
		o.poster = p
		o.http = hc
	}
}

// New builds a session for cfg. The report service is the one offering the
// version's extension methods: ReportService for v13, ReportDefinitionService
// afterwards.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	table, err := extension.DefaultTable().Merge(cfg.Extensions)
	if err != nil {
		return nil, err
	}
	name, ok := table.ServiceFor(cfg.Service.Version, extension.DownloadReport)
	if !ok {
		name, ok = table.ServiceFor(cfg.Service.Version, extension.DownloadXMLReport)
	}
	if !ok {
		return nil, fmt.Errorf("session: %w: no report service for version %s", extension.ErrUnsupported, cfg.Service.Version)
	}
	caps, err := table.Resolve(cfg.Service.Version, name)
	if err != nil {
		return nil, err
	}

	s := &Session{Config: cfg, Table: table, logger: o.logger}
	s.HTTP = transport.New(
		transport.WithTimeout(cfg.Service.RequestTimeout),
		transport.WithLogger(o.logger.With("component", "transport")),
	)
	if o.poster == nil {
		o.poster = s.HTTP
	}
	if o.http == nil {
		o.http = s.HTTP
	}

	inv, err := s.invoker(o.poster, name)
	if err != nil {
		return nil, err
	}
	clientOpts := []report.Option{
		report.WithNamingStyle(cfg.Style()),
		report.WithPollInterval(cfg.Service.PollInterval),
		report.WithDownloadURL(cfg.DownloadURL()),
		report.WithLogger(o.logger.With("component", "report")),
	}
	if o.metrics != nil {
		clientOpts = append(clientOpts, report.WithRecorder(o.metrics))
	}
	s.Client, err = report.New(inv, o.http, cfg.Credentials(), clientOpts...)
	if err != nil {
		return nil, err
	}
	s.Reports = extension.NewReportService(s.Client, caps)
	s.poster = o.poster
	return s, nil
}

// Invoker returns an invoker bound to service in the session's version.
func (s *Session) Invoker(service string) (*soap.Invoker, error) {
	return s.invoker(s.poster, service)
}

func (s *Session) invoker(p soap.Poster, service string) (*soap.Invoker, error) {
	cfg := s.Config
	svc := soap.Service{Host: cfg.Service.Endpoint, Version: cfg.Service.Version, Name: service}
	h := soap.Header{
		AuthToken:        cfg.Authentication.Token,
		ClientEmail:      cfg.Authentication.ClientEmail,
		ClientCustomerID: cfg.Authentication.ClientCustomerID,
		DeveloperToken:   cfg.Authentication.DeveloperToken,
		UserAgent:        cfg.Authentication.UserAgent,
	}
	return soap.New(p, svc, h,
		soap.WithNamingStyle(cfg.Style()),
		soap.WithLogger(s.logger.With("component", "soap", "service", service)),
	)
}
