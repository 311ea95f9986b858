// Package format renders reports and run listings as terminal or Markdown
// tables.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"adwords-report/report"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "table"/"ascii" and "markdown"/"md" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "table", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("format: unknown table mode %q", s)
}

// Table renders columns and rows in mode. Cells wider than maxWidth are
// wrapped; 0 disables wrapping. numeric lists the 1-based columns aligned
// right.
func Table(mode Mode, columns []string, rows [][]string, maxWidth int, numeric ...int) string {
	w := table.NewWriter()
	if mode == ASCII {
		w.SetStyle(table.StyleLight)
		w.Style().Format.Header = text.FormatDefault
	}

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	w.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		w.AppendRow(row)
	}

	var cfgs []table.ColumnConfig
	right := map[int]bool{}
	for _, n := range numeric {
		right[n] = true
	}
	for i := range columns {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if right[i+1] {
			cfg.Align = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	w.SetColumnConfigs(cfgs)

	if mode == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// Report renders a tabular report. Columns whose every value parses as a
// number are aligned right.
func Report(mode Mode, rep *report.TabularReport, maxWidth int) string {
	rows := make([][]string, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = rep.Record(r)
	}
	var numeric []int
	for c := range rep.Columns {
		if len(rows) > 0 && allNumeric(rows, c) {
			numeric = append(numeric, c+1)
		}
	}
	return Table(mode, rep.Columns, rows, maxWidth, numeric...)
}

func allNumeric(rows [][]string, col int) bool {
	for _, r := range rows {
		v := strings.TrimSpace(r[col])
		if v == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscan(v, &f); err != nil {
			return false
		}
	}
	return true
}
