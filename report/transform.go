package report

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	columnPath = "report/table/columns/column"
	rowPath    = "report/table/rows/row"
)

// TabularReport is the column/row content of a downloaded report. Row values
// are keyed by column name; a missing value renders as an empty field.
type TabularReport struct {
	Columns []string
	Rows    []map[string]string
}

// ParseTabular reads the columns and rows of a report XML document.
// Columns keep their declaration order; duplicate names are kept once and
// row attributes that do not name a column are dropped.
func ParseTabular(data []byte) (*TabularReport, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	rep := &TabularReport{}
	known := map[string]bool{}
	var stack []string
	sawElement := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			sawElement = true
			stack = append(stack, t.Name.Local)
			switch strings.Join(stack, "/") {
			case columnPath:
				name, ok := attr(t, "name")
				if ok && !known[name] {
					known[name] = true
					rep.Columns = append(rep.Columns, name)
				}
			case rowPath:
				row := make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					row[a.Name.Local] = a.Value
				}
				rep.Rows = append(rep.Rows, row)
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if !sawElement {
		return nil, &ParseError{Err: errors.New("no root element")}
	}

	for _, row := range rep.Rows {
		for k := range row {
			if !known[k] {
				delete(row, k)
			}
		}
	}
	return rep, nil
}

// ToDelimited converts a report XML document to CSV: a header line of column
// names, then one line per row with a field for every column.
func ToDelimited(data []byte) (string, error) {
	rep, err := ParseTabular(data)
	if err != nil {
		return "", err
	}
	return rep.CSV()
}

// Record returns the values of row ordered by column. Missing values are
// empty strings.
func (r *TabularReport) Record(row map[string]string) []string {
	rec := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		rec[i] = row[col]
	}
	return rec
}

// WriteCSV writes the report as comma separated values.
func (r *TabularReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(r.Record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the report as comma separated values.
func (r *TabularReport) CSV() (string, error) {
	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func attr(t xml.StartElement, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseError(dec *xml.Decoder, err error) *ParseError {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Line: se.Line, Err: err}
	}
	line, _ := dec.InputPos()
	return &ParseError{Line: line, Err: err}
}
