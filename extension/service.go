package extension

import (
	"context"
	"fmt"
	"strings"

	"adwords-report/report"
)

// ReportService exposes the extension methods of one service.
type ReportService struct {
	client *report.Client
	caps   Capabilities
}

// NewReportService binds c to the capabilities resolved for its service.
func NewReportService(c *report.Client, caps Capabilities) *ReportService {
	return &ReportService{client: c, caps: caps}
}

// Capabilities returns the methods this service offers.
func (s *ReportService) Capabilities() Capabilities {
	return s.caps
}

func (s *ReportService) check(m Method) error {
	if !s.caps.Has(m) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupported, m, s.caps.Key)
	}
	return nil
}

func (s *ReportService) DownloadXMLReport(ctx context.Context, jobID string) ([]byte, error) {
	if err := s.check(DownloadXMLReport); err != nil {
		return nil, err
	}
	return s.client.DownloadXMLReport(ctx, jobID)
}

func (s *ReportService) DownloadCSVReport(ctx context.Context, jobID string) (string, error) {
	if err := s.check(DownloadCSVReport); err != nil {
		return "", err
	}
	return s.client.DownloadCSVReport(ctx, jobID)
}

func (s *ReportService) DownloadReport(ctx context.Context, definitionID string) ([]byte, error) {
	if err := s.check(DownloadReport); err != nil {
		return nil, err
	}
	return s.client.DownloadReport(ctx, definitionID)
}

func (s *ReportService) DownloadReportAsFile(ctx context.Context, definitionID, path string) error {
	if err := s.check(DownloadReportAsFile); err != nil {
		return err
	}
	return s.client.DownloadReportAsFile(ctx, definitionID, path)
}

// Call invokes m with arguments named after m.Params(). Methods returning
// text return it as bytes; DownloadReportAsFile returns nil.
func (s *ReportService) Call(ctx context.Context, m Method, args map[string]string) ([]byte, error) {
	if err := s.check(m); err != nil {
		return nil, err
	}
	var missing []string
	for _, p := range m.Params() {
		if args[p] == "" {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("extension: %s: missing %s", m, strings.Join(missing, ", "))
	}

	switch m {
	case DownloadXMLReport:
		return s.DownloadXMLReport(ctx, args["job_id"])
	case DownloadCSVReport:
		csv, err := s.DownloadCSVReport(ctx, args["job_id"])
		if err != nil {
			return nil, err
		}
		return []byte(csv), nil
	case DownloadReport:
		return s.DownloadReport(ctx, args["report_definition_id"])
	case DownloadReportAsFile:
		return nil, s.DownloadReportAsFile(ctx, args["report_definition_id"], args["path"])
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, m)
}
