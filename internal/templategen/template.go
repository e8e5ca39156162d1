// =============================================================================
// Bulk PAYE - Template Generator
// =============================================================================
//
// Builds the downloadable employee template. The layout of the
// "Employee Data" sheet is what the spreadsheet parser expects back:
//
//   row  1      title
//   row  2      generated date + schema version tag
//   rows 3-10   numbered instructions
//   row  11     blank
//   row  12     sample data marker
//   row  13     blank
//   row  14     header row ("Employee Name*" first)
//   rows 15-17  sample employees (ignored on upload)
//   rows 18-40  blank rows for the operator to fill in
//   rows 41-42  blank
//   rows 43-47  watermark block (ignored on upload)
//
// A second "Instructions" sheet repeats the guidance in one column.
//
// NOTE: no instruction text may contain the literal header marker, or the
// parser would mistake it for the header row.
//
// =============================================================================

package templategen

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fiquant/taxpro-bulk/internal/schema"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

const (
	DataSheet         = "Employee Data"
	InstructionsSheet = "Instructions"
)

// Row positions (1-indexed) on the data sheet.
const (
	titleRow        = 1
	dateRow         = 2
	firstInstrRow   = 3
	sampleMarkerRow = 12
	HeaderRow       = 14
	firstSampleRow  = 15
	firstBlankRow   = 18
	blankRows       = 23
	firstWMarkRow   = 43
)

var instructions = []string{
	"1. Enter one employee per row, starting in the first empty row under the sample data.",
	"2. Employee Name and Basic Salary are required (columns marked with *). Rows missing either are skipped.",
	"3. Enter monthly amounts as plain numbers. Currency symbols and thousands separators are accepted.",
	"4. Leave a field blank if it does not apply. Blank amounts are treated as zero.",
	"5. Leave NHF Contribution blank if the employee is not enrolled; enter 0 if enrolled with no contribution.",
	"6. BIK columns are the full value of benefits in kind; the taxable portion is worked out for you.",
	"7. Do not edit the sample rows, the header row or the rows above it. Sample rows are ignored on upload.",
	"8. Save the file as .xlsx, .xls or .csv and upload it on the Bulk Calculator page.",
}

var samples = [][]string{
	{"John Doe", "12345678-0001", "250000", "100000", "40000", "20000", "10000", "25000", "", "", "", "", "20000", "6250", "", "", "", "600000", ""},
	{"Jane Smith", "12345678-0002", "400000", "150000", "60000", "25000", "15000", "40000", "10000", "50000", "", "100000", "32000", "", "5000", "", "", "", "150000"},
	{"Adaeze Okafor", "", "180000", "60000", "30000", "", "", "", "", "", "", "", "14400", "0", "", "", "3600", "", ""},
}

// Options controls the generated workbook.
type Options struct {
	// Company is shown in the watermark. Empty omits the line.
	Company string

	// Now stamps the generated date. Zero means time.Now().
	Now time.Time
}

// Generate builds the template workbook. The caller owns the returned file
// and must Close it.
func Generate(opts Options) (*excelize.File, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	f := excelize.NewFile()
	b := &builder{f: f}

	b.do(func() error { return f.SetSheetName("Sheet1", DataSheet) })
	b.do(func() error {
		_, err := f.NewSheet(InstructionsSheet)
		return err
	})
	b.writeDataSheet(opts)
	b.writeInstructionsSheet()
	f.SetActiveSheet(0)

	if b.err != nil {
		_ = f.Close()
		return nil, serializationError(b.err)
	}
	return f, nil
}

// Bytes renders the template to an in-memory xlsx.
func Bytes(opts Options) ([]byte, error) {
	f, err := Generate(opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, serializationError(err)
	}
	return buf.Bytes(), nil
}

// Write renders the template to w. On error nothing is written, since the
// workbook is rendered to memory first.
func Write(w io.Writer, opts Options) error {
	data, err := Bytes(opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return serializationError(err)
	}
	return nil
}

func serializationError(err error) error {
	return types.NewError(types.KindSerialization, err, "Failed to generate the template.", "try again")
}

// =============================================================================
// BUILDER
// =============================================================================

// builder keeps the first excelize error so the layout code stays linear.
type builder struct {
	f   *excelize.File
	err error
}

func (b *builder) do(fn func() error) {
	if b.err == nil {
		b.err = fn()
	}
}

func (b *builder) style(s *excelize.Style) int {
	var id int
	b.do(func() error {
		var err error
		id, err = b.f.NewStyle(s)
		return err
	})
	return id
}

func (b *builder) row(sheet string, rowNum int, values []string, style int) {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	start := cell(1, rowNum)
	b.do(func() error { return b.f.SetSheetRow(sheet, start, &cells) })
	if style != 0 && len(values) > 0 {
		b.do(func() error { return b.f.SetCellStyle(sheet, start, cell(len(values), rowNum), style) })
	}
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("invalid cell %d,%d: %v", col, row, err))
	}
	return name
}

func (b *builder) writeDataSheet(opts Options) {
	ncols := schema.ColumnCount()
	last, err := excelize.ColumnNumberToName(ncols)
	if err != nil {
		b.err = err
		return
	}

	titleStyle := b.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14, Color: "1F4E78"}})
	noteStyle := b.style(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "595959"}})
	markerStyle := b.style(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C5700"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFEB9C"}},
	})
	headerStyle := b.style(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	sampleStyle := b.style(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "7F7F7F"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}},
	})
	moneyStyle := b.style(&excelize.Style{NumFmt: 4})
	watermarkStyle := b.style(&excelize.Style{Font: &excelize.Font{Italic: true, Size: 8, Color: "A6A6A6"}})

	s := DataSheet
	b.row(s, titleRow, []string{schema.WatermarkCompany + " Bulk PAYE Calculator - Employee Template"}, titleStyle)
	b.do(func() error { return b.f.MergeCell(s, cell(1, titleRow), cell(6, titleRow)) })
	b.row(s, dateRow, []string{"Generated: " + opts.Now.Format("2 January 2006"), schema.VersionTag()}, noteStyle)

	for i, line := range instructions {
		b.row(s, firstInstrRow+i, []string{line}, noteStyle)
	}

	b.row(s, sampleMarkerRow, []string{schema.SampleMarker + " - the rows below the header are examples and are ignored on upload"}, markerStyle)
	b.row(s, HeaderRow, schema.Headers(), headerStyle)

	for i, sample := range samples {
		b.row(s, firstSampleRow+i, sample, sampleStyle)
	}

	// Editable rows: text for name and tax ID, money format for the rest.
	b.do(func() error {
		return b.f.SetCellStyle(s, cell(3, firstBlankRow), cell(ncols, firstBlankRow+blankRows-1), moneyStyle)
	})

	year := opts.Now.Year()
	watermark := []string{
		fmt.Sprintf("%s %d %s. All rights reserved.", schema.WatermarkGlyph, year, schema.WatermarkCompany),
		schema.WatermarkCompany + " - this template is provided for use with the Bulk PAYE Calculator only.",
		schema.WatermarkCompany + " - figures are computed by the calculator, not by this spreadsheet.",
		schema.WatermarkGlyph + " Rows in this block are ignored on upload.",
		schema.WatermarkCompany,
	}
	if opts.Company != "" {
		watermark[4] = schema.WatermarkCompany + " - prepared for " + opts.Company
	}
	for i, line := range watermark {
		b.row(s, firstWMarkRow+i, []string{line}, watermarkStyle)
	}

	b.do(func() error { return b.f.SetColWidth(s, "A", "A", 26) })
	b.do(func() error { return b.f.SetColWidth(s, "B", last, 18) })
	b.do(func() error { return b.f.SetRowHeight(s, HeaderRow, 32) })
}

func (b *builder) writeInstructionsSheet() {
	s := InstructionsSheet
	lines := append([]string{"How to fill in the employee template", ""}, instructions...)
	lines = append(lines,
		"",
		"Column guide:",
	)
	for _, c := range schema.Columns() {
		req := "optional"
		if c.Required {
			req = "required"
		}
		// Strip the asterisk so this sheet never repeats the header marker.
		lines = append(lines, fmt.Sprintf("  %s (%s)", trimStar(c.Header), req))
	}

	for i, line := range lines {
		b.row(s, i+1, []string{line}, 0)
	}
	b.do(func() error { return b.f.SetColWidth(s, "A", "A", 110) })
}

func trimStar(s string) string {
	if n := len(s); n > 0 && s[n-1] == '*' {
		return s[:n-1]
	}
	return s
}
