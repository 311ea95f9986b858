package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"adwords-report/format"
	"adwords-report/utils"
	"adwords-report/worker"
)

var batchFlags struct {
	outDir   string
	parallel int
	format   string
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Download every report listed in a file",
	Long: "Each line of the file names one report: \"job <id>\" or \"definition <id>\"\n" +
		"(a bare id is a report definition). Blank lines and # comments are ignored.\n" +
		"Reports are written to --out-dir as <variant>-<id>.<format>.",
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.outDir, "out-dir", "reports", "output directory")
	f.IntVar(&batchFlags.parallel, "parallel", 4, "reports downloaded at once")
	f.StringVar(&batchFlags.format, "format", "csv", "csv, xml or xlsx")
}

// parseBatchLine reads "job <id>", "definition <id>" or "<id>".
func parseBatchLine(line string) (*worker.ReportRequest, error) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && fields[0] != "job" && fields[0] != "definition":
		return &worker.ReportRequest{DefinitionID: fields[0]}, nil
	case len(fields) == 2 && fields[0] == "job":
		return &worker.ReportRequest{JobID: fields[1]}, nil
	case len(fields) == 2 && fields[0] == "definition":
		return &worker.ReportRequest{DefinitionID: fields[1]}, nil
	}
	return nil, fmt.Errorf("bad batch line %q", line)
}

func runBatch(cmd *cobra.Command, args []string) error {
	lines, err := utils.ReadLines(args[0])
	if err != nil {
		return err
	}
	fmtOut, err := worker.ParseFormat(batchFlags.format)
	if err != nil {
		return err
	}
	reqs := make([]*worker.ReportRequest, len(lines))
	for i, l := range lines {
		if reqs[i], err = parseBatchLine(l); err != nil {
			return err
		}
		d := reqs[i].Descriptor()
		reqs[i].ID = d.Variant() + "-" + firstNonEmpty(d.JobID, d.DefinitionID)
		reqs[i].Format = fmtOut
		reqs[i].CreatedAt = time.Now()
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	pool := worker.NewPool(s.Client, batchFlags.outDir, nil, worker.WithRunTimeout(s.Config.Service.PollTimeout))

	results := make([]*worker.ReportResult, len(reqs))
	var mu sync.Mutex
	failed := 0
	g, ctx := errgroup.WithContext(cmdContext(cmd))
	g.SetLimit(max(1, batchFlags.parallel))
	for i, req := range reqs {
		g.Go(func() error {
			res := pool.Process(ctx, req)
			results[i] = res
			if res.Status == worker.StatusError {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // failures are reported per report

	rows := make([][]string, len(reqs))
	for i, res := range results {
		detail := res.Path
		if res.Status == worker.StatusError {
			detail = res.ErrorMsg
		}
		rows[i] = []string{reqs[i].ID, string(res.Status), strconv.Itoa(res.Rows), detail}
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.Table(format.ASCII, []string{"Report", "Status", "Rows", "File / error"}, rows, 60, 3))
	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(reqs))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
