package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"adwords-report/config"
	"adwords-report/extension"
	"adwords-report/logging"
	"adwords-report/report"
	"adwords-report/session"
	"adwords-report/utils"
)

// openSession loads the configuration and builds the API session. A missing
// auth token is asked for when stdin is a terminal.
func openSession(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := config.Load(rootFlags.config)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if rootFlags.logLevel != "" {
		level = rootFlags.logLevel
	}
	logging.Init(logging.ParseLevel(level), cfg.Log.Format, cmd.ErrOrStderr())

	if cfg.Authentication.Token == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		tok, err := utils.PromptSecret("Auth token")
		if err != nil {
			return nil, err
		}
		cfg.Authentication.Token = tok
	}
	return session.New(cfg, session.WithLogger(logging.New("cli")))
}

// commandContext bounds the command by service.poll_timeout when set.
func commandContext(cmd *cobra.Command, s *session.Session) (context.Context, context.CancelFunc) {
	ctx := cmdContext(cmd)
	if d := s.Config.Service.PollTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// fetchXML downloads the XML report of a job or of a report definition
// through the capability-checked extension methods.
func fetchXML(ctx context.Context, s *session.Session, id string, job bool) ([]byte, error) {
	if job {
		return s.Reports.Call(ctx, extension.DownloadXMLReport, map[string]string{"job_id": id})
	}
	return s.Reports.Call(ctx, extension.DownloadReport, map[string]string{"report_definition_id": id})
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// printError prints API faults the way the service reports them.
func printError(w io.Writer, err error) {
	var fault *report.RemoteFault
	var conn *report.ConnectionError
	switch {
	case errors.As(err, &fault):
		fmt.Fprintln(w, "API error:")
		fmt.Fprint(w, fault.Describe())
	case errors.As(err, &conn):
		fmt.Fprintf(w, "Connection error, please retry: %v\n", conn.Err)
	case errors.Is(err, report.ErrReportGenerationFailed):
		fmt.Fprintln(w, "The report job failed on the server.")
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(w, "Timed out waiting for the report (service.poll_timeout).")
	default:
		fmt.Fprintln(w, "Error:", err)
	}
}
