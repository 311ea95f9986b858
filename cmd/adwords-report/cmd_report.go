package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"adwords-report/format"
	"adwords-report/report"
)

var reportFlags struct {
	out   string
	job   bool
	mode  string
	width int
	sheet string
}

var xmlReportCmd = &cobra.Command{
	Use:   "xml-report <job-id>",
	Short: "Wait for a report job and download its XML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, s)
		defer cancel()
		data, err := s.Reports.DownloadXMLReport(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), reportFlags.out, data)
	},
}

var csvReportCmd = &cobra.Command{
	Use:   "csv-report <job-id>",
	Short: "Wait for a report job and convert it to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, s)
		defer cancel()
		csv, err := s.Reports.DownloadCSVReport(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), reportFlags.out, []byte(csv))
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <definition-id>",
	Short: "Download the report of a report definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, s)
		defer cancel()
		if out := reportFlags.out; out != "" && out != "-" {
			if err := s.Reports.DownloadReportAsFile(ctx, args[0], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Report %s saved to %s\n", args[0], out)
			return nil
		}
		data, err := s.Reports.DownloadReport(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), "", data)
	},
}

var tableCmd = &cobra.Command{
	Use:   "table <definition-id|job-id>",
	Short: "Print a report as a terminal or Markdown table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := format.ParseMode(reportFlags.mode)
		if err != nil {
			return err
		}
		rep, err := fetchTabular(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), format.Report(mode, rep, reportFlags.width))
		return nil
	},
}

var xlsxCmd = &cobra.Command{
	Use:   "xlsx <definition-id|job-id>",
	Short: "Convert a report to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportFlags.out == "" || reportFlags.out == "-" {
			return fmt.Errorf("--out is required for xlsx output")
		}
		rep, err := fetchTabular(cmd, args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := rep.WriteXLSX(&buf, reportFlags.sheet); err != nil {
			return err
		}
		if err := writeOutput(nil, reportFlags.out, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", len(rep.Rows), reportFlags.out)
		return nil
	},
}

func fetchTabular(cmd *cobra.Command, id string) (*report.TabularReport, error) {
	s, err := openSession(cmd)
	if err != nil {
		return nil, err
	}
	ctx, cancel := commandContext(cmd, s)
	defer cancel()
	data, err := fetchXML(ctx, s, id, reportFlags.job)
	if err != nil {
		return nil, err
	}
	return report.ParseTabular(data)
}

func init() {
	for _, c := range []*cobra.Command{xmlReportCmd, csvReportCmd, downloadCmd, xlsxCmd} {
		c.Flags().StringVarP(&reportFlags.out, "out", "o", "", "output file (default stdout)")
	}
	for _, c := range []*cobra.Command{tableCmd, xlsxCmd} {
		c.Flags().BoolVar(&reportFlags.job, "job", false, "the id is a report job id instead of a report definition id")
	}
	tableCmd.Flags().StringVar(&reportFlags.mode, "format", "table", "table or markdown")
	tableCmd.Flags().IntVar(&reportFlags.width, "width", 40, "maximum column width, 0 for no limit")
	xlsxCmd.Flags().StringVar(&reportFlags.sheet, "sheet", report.DefaultSheetName, "worksheet name")
}
