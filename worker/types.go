package worker

import (
	"fmt"
	"strings"
	"time"

	"adwords-report/report"
)

// ReportStatus is the gateway-side state of a request.
type ReportStatus string

const (
	StatusWaiting    ReportStatus = "waiting"
	StatusProcessing ReportStatus = "processing"
	StatusComplete   ReportStatus = "complete"
	StatusError      ReportStatus = "error"
	StatusExpired    ReportStatus = "expired"
)

// Format is the file format a request is stored in.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv, xml, xlsx and excel. The empty string is csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ReportRequest is a queued report download.
type ReportRequest struct {
	ID           string
	Owner        string // token subject
	Admin        bool
	JobID        string // legacy job, polled until done
	DefinitionID string // report definition, downloaded directly
	Format       Format
	CreatedAt    time.Time
}

// Descriptor returns the fetch descriptor of the request.
func (r *ReportRequest) Descriptor() report.Descriptor {
	if r.DefinitionID != "" {
		return report.ForDefinition(r.DefinitionID, "")
	}
	return report.ForJob(r.JobID)
}

// ReportResult is the outcome of a request.
type ReportResult struct {
	Status     ReportStatus
	Path       string
	Format     Format
	Rows       int
	Bytes      int64
	ErrorMsg   string
	Owner      string
	CreatedAt  time.Time
	FinishedAt time.Time
}
