package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

const missingValue = `<report><table>
<columns><column name="A"/><column name="B"/></columns>
<rows><row A="1" B="2"/><row A="3"/></rows>
</table></report>`

func TestToDelimited_MissingValueRendersEmpty(t *testing.T) {
	out, err := ToDelimited([]byte(missingValue))
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,2\n3,\n", out)
}

func TestToDelimited_Idempotent(t *testing.T) {
	first, err := ToDelimited([]byte(missingValue))
	require.NoError(t, err)
	second, err := ToDelimited([]byte(missingValue))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestToDelimited_ColumnOrderNotAttributeOrder(t *testing.T) {
	doc := `<report><table>
<columns><column name="Cost"/><column name="Id"/><column name="Name"/></columns>
<rows><row Name="a, b" Id="9" Cost="1.5"/></rows>
</table></report>`
	out, err := ToDelimited([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Cost,Id,Name\n1.5,9,\"a, b\"\n", out)
}

func TestToDelimited_QuotesEmbeddedNewlinesAndQuotes(t *testing.T) {
	doc := `<report><table><columns><column name="Text"/></columns>
<rows><row Text="say &quot;hi&quot;&#10;twice"/></rows></table></report>`
	out, err := ToDelimited([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Text\n\"say \"\"hi\"\"\ntwice\"\n", out)
}

func TestToDelimited_RowWidthAlwaysColumnCount(t *testing.T) {
	doc := `<report><table>
<columns><column name="A"/><column name="B"/><column name="C"/></columns>
<rows><row/><row C="z" Extra="ignored"/></rows>
</table></report>`
	out, err := ToDelimited([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "A,B,C\n,,\n,,z\n", out)
}

func TestParseTabular(t *testing.T) {
	rep, err := ParseTabular([]byte(missingValue))
	require.NoError(t, err)

	want := &TabularReport{
		Columns: []string{"A", "B"},
		Rows: []map[string]string{
			{"A": "1", "B": "2"},
			{"A": "3"},
		},
	}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("ParseTabular mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTabular_IgnoresElementsOffPath(t *testing.T) {
	doc := `<report><column name="Nope"/><table>
<columns><column name="A"/><column/><column name="A"/></columns>
<rows><row A="1"/></rows><row A="stray"/>
</table></report>`
	rep, err := ParseTabular([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, rep.Columns)
	assert.Len(t, rep.Rows, 1)
}

func TestParseTabular_Malformed(t *testing.T) {
	cases := map[string]string{
		"unterminated tag":     `<report><table><columns><column name="A"`,
		"unclosed elements":    `<report><table>`,
		"mismatched end tag":   "<report>\n<table></rows></report>",
		"empty document":       ``,
		"bad attribute syntax": `<report><table><rows><row A=1/></rows></table></report>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ToDelimited([]byte(doc))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), "error parsing report XML")
		})
	}
}

func TestParseTabular_MalformedReportsLine(t *testing.T) {
	_, err := ParseTabular([]byte("<report>\n<table>\n</rows>"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

func TestParseTabular_DeclaredCharset(t *testing.T) {
	// "Café" with é as the single Latin-1 byte 0xE9.
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<report><table><columns><column name=\"Name\"/></columns>" +
		"<rows><row Name=\"Caf\xe9\"/></rows></table></report>")
	rep, err := ParseTabular(doc)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"Name": "Café"}}, rep.Rows)
}

func TestWriteXLSX_LongSheetNameCutByCharacter(t *testing.T) {
	rep, err := ParseTabular([]byte(missingValue))
	require.NoError(t, err)

	name := strings.Repeat("é", 20) + strings.Repeat("x", 15) // 35 characters, 55 bytes
	var buf bytes.Buffer
	require.NoError(t, rep.WriteXLSX(&buf, name))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	want := strings.Repeat("é", 20) + strings.Repeat("x", 11)
	_, ok := f.Sheet[want]
	assert.True(t, ok, "sheets: %v", f.Sheets)

	short := strings.Repeat("é", 31) // 31 characters, 62 bytes: kept whole
	buf.Reset()
	require.NoError(t, rep.WriteXLSX(&buf, short))
	f, err = xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	_, ok = f.Sheet[short]
	assert.True(t, ok)
}

func TestWriteXLSX(t *testing.T) {
	rep, err := ParseTabular([]byte(missingValue))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteXLSX(&buf, ""))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[DefaultSheetName]
	require.True(t, ok)
	assert.Equal(t, 3, sheet.MaxRow)

	want := [][]string{{"A", "B"}, {"1", "2"}, {"3", ""}}
	for r, row := range want {
		for c, v := range row {
			cell, err := sheet.Cell(r, c)
			require.NoError(t, err)
			assert.Equal(t, v, cell.Value, "cell %d,%d", r, c)
		}
	}
}
