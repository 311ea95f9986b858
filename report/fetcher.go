package report

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"adwords-report/utils"
)

// ErrNoDownloadURL is returned by definition downloads when the client was
// built without a download base URL.
var ErrNoDownloadURL = errors.New("report: no download URL configured for this environment and version")

// DownloadXMLReport waits for jobID to finish and returns the report XML.
// A Failed job yields ErrReportGenerationFailed and nothing is fetched.
func (c *Client) DownloadXMLReport(ctx context.Context, jobID string) ([]byte, error) {
	status, err := c.AwaitCompletion(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if status == StatusFailed {
		c.recorder.ObserveDownload("job", 0, ErrReportGenerationFailed)
		c.logger.WarnContext(ctx, "report generation failed", "job_id", jobID)
		return nil, ErrReportGenerationFailed
	}
	reportURL, err := c.downloadURLFor(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "job", reportURL)
}

// DownloadCSVReport waits for jobID to finish and returns the report as
// comma separated values.
func (c *Client) DownloadCSVReport(ctx context.Context, jobID string) (string, error) {
	data, err := c.DownloadXMLReport(ctx, jobID)
	if err != nil {
		return "", err
	}
	return ToDelimited(data)
}

// DownloadReport downloads the report of a report definition. The service
// generates these synchronously, so no polling happens.
func (c *Client) DownloadReport(ctx context.Context, definitionID string) ([]byte, error) {
	reportURL, err := c.DefinitionURL(definitionID)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "definition", reportURL)
}

// DownloadReportAsFile downloads the report of a report definition into path.
func (c *Client) DownloadReportAsFile(ctx context.Context, definitionID, path string) error {
	_, err := c.Fetch(ctx, ForDefinition(definitionID, path))
	return err
}

// DefinitionURL returns the download endpoint of a report definition.
func (c *Client) DefinitionURL(definitionID string) (string, error) {
	if c.downloadURL == "" {
		return "", ErrNoDownloadURL
	}
	if strings.TrimSpace(definitionID) == "" {
		return "", fmt.Errorf("report: empty report definition id")
	}
	return c.downloadURL + "?__rd=" + url.QueryEscape(definitionID), nil
}

// Fetch downloads the report named by d. When d.Path is set the bytes are
// written there and nil is returned.
func (c *Client) Fetch(ctx context.Context, d Descriptor) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case d.DefinitionID != "":
		data, err = c.DownloadReport(ctx, d.DefinitionID)
	case d.JobID != "":
		data, err = c.DownloadXMLReport(ctx, d.JobID)
	default:
		return nil, fmt.Errorf("report: descriptor has neither job id nor definition id")
	}
	if err != nil {
		return nil, err
	}
	if d.Path == "" {
		return data, nil
	}
	if err := writeReport(d.Path, data); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "report saved", "path", d.Path, "bytes", len(data))
	return nil, nil
}

func (c *Client) get(ctx context.Context, variant, reportURL string) ([]byte, error) {
	resp, err := c.http.Get(ctx, reportURL, c.auth.Headers())
	if err != nil {
		c.recorder.ObserveDownload(variant, 0, err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(resp.Body))
		if msg == "" {
			msg = fmt.Sprintf("download returned HTTP %d", resp.StatusCode)
		}
		fault := &RemoteFault{Code: resp.StatusCode, Message: msg}
		c.recorder.ObserveDownload(variant, 0, fault)
		return nil, fault
	}
	c.recorder.ObserveDownload(variant, len(resp.Body), nil)
	c.logger.DebugContext(ctx, "report downloaded", "variant", variant, "bytes", len(resp.Body))
	return resp.Body, nil
}

func writeReport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDirExists(dir); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
