// =============================================================================
// Bulk PAYE - Spreadsheet Parser
// =============================================================================
//
// Reads an uploaded employee file back into EmployeeRecords.
//
// PARSING PROCESS:
//   1. Dispatch on the file extension (.csv, .xlsx, .xls, any case)
//   2. Find the header row: the first row (within HeaderScanRows) whose first
//      cell contains "Employee Name*". For CSV the whole line is searched.
//   3. Reject the file if a schema tag above the header names another layout
//   4. Walk the rows after the header, dropping blank rows, sample rows and
//      watermark rows
//   5. Map cells to fields by position
//   6. Drop rows without a name or basic salary
//
// The parser keeps no state between calls. A failed upload can be retried
// immediately with another file.
//
// =============================================================================

package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/schema"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// DefaultHeaderScanRows bounds the search for the header row.
const DefaultHeaderScanRows = 200

// SupportedExtensions are the accepted upload types.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls"}

// Options configures a Parser.
type Options struct {
	// Encoding of CSV uploads: "auto", "utf-8" or "windows-1252".
	Encoding string

	// HeaderScanRows is how many rows are searched for the header.
	HeaderScanRows int
}

// Parser turns uploaded files into employee records.
type Parser struct {
	opts   Options
	logger logrus.FieldLogger
}

// New creates a Parser. A nil logger discards output.
func New(opts Options, logger logrus.FieldLogger) *Parser {
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = DefaultHeaderScanRows
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Parser{opts: opts, logger: logger}
}

// Report describes what happened to each row after the header. Row numbers
// are 1-indexed positions in the source sheet.
type Report struct {
	Sheet      string
	HeaderRow  int
	Version    string
	Imported   int
	Blank      []int
	Sample     []int
	Watermark  []int
	Ineligible []int
}

// Parse reads records from data.
//
// PARAMETERS:
//   - data:     the file contents.
//   - filename: used only for its extension.
//
// RETURNS:
//   - Records numbered from 1, none of them calculated.
//   - A validation error for an unsupported extension, or a format error when
//     the file is unreadable, is not the template, or holds no valid rows.
func (p *Parser) Parse(data []byte, filename string) ([]types.EmployeeRecord, error) {
	records, _, err := p.ParseWithReport(data, filename)
	return records, err
}

// ParseWithReport is Parse plus a per-row account of what was skipped.
func (p *Parser) ParseWithReport(data []byte, filename string) (records []types.EmployeeRecord, report Report, err error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var read func([]byte) ([]sheet, error)
	switch ext {
	case ".csv":
		read = func(b []byte) ([]sheet, error) { return readCSV(b, p.opts.Encoding) }
	case ".xlsx":
		read = readXLSX
	case ".xls":
		read = readXLS
	default:
		return nil, Report{}, types.NewError(types.KindValidation, types.ErrUnsupportedExtension,
			fmt.Sprintf("Unsupported file type %q.", ext),
			"please upload a "+strings.Join(SupportedExtensions, ", ")+" file")
	}

	sheets, err := p.decode(read, data)
	if err != nil {
		logging.LogError(p.logger, "spreadsheet", "Parse", "decode file", filename, err)
		return nil, Report{}, parseFailed(err)
	}

	sh, header, found := p.findHeader(sheets, ext == ".csv")
	if !found {
		return nil, Report{}, types.NewError(types.KindFormat, types.ErrHeaderNotFound,
			"This file is not the expected template.",
			"download the template and enter your employees in it")
	}
	report = Report{Sheet: sh.name, HeaderRow: header + 1}

	if version, ok := findVersion(sh.rows[:header]); ok {
		report.Version = version
		if version != schema.Version {
			return nil, report, types.NewError(types.KindFormat,
				fmt.Errorf("%w: file has %s, expected %s", types.ErrSchemaMismatch, version, schema.Version),
				"This file was made from a different version of the template.",
				"download the current template and copy your employees into it")
		}
	}

	records = mapRows(sh.rows, header, &report)
	report.Imported = len(records)

	p.logger.WithFields(logrus.Fields{
		"file":       filename,
		"sheet":      report.Sheet,
		"header_row": report.HeaderRow,
		"imported":   report.Imported,
		"sample":     len(report.Sample),
		"watermark":  len(report.Watermark),
		"ineligible": len(report.Ineligible),
	}).Info("spreadsheet parsed")

	if len(records) == 0 {
		return nil, report, types.NewError(types.KindFormat, types.ErrNoValidRecords,
			"No valid employee data found in the file.",
			"fill in at least one employee with a name and basic salary below the header row")
	}
	return records, report, nil
}

// decode runs a decoder, turning a panic inside a third-party reader into an
// ordinary error.
func (p *Parser) decode(read func([]byte) ([]sheet, error), data []byte) (sheets []sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return read(data)
}

func parseFailed(cause error) error {
	return types.NewError(types.KindFormat, fmt.Errorf("%w: %v", types.ErrParseFailed, cause),
		"The file could not be read.",
		"check that the file is not damaged and was saved from the downloaded template")
}

// findHeader returns the first sheet holding a header row and the row's
// index within it.
func (p *Parser) findHeader(sheets []sheet, wholeLine bool) (sheet, int, bool) {
	for _, sh := range sheets {
		limit := min(len(sh.rows), p.opts.HeaderScanRows)
		for i := 0; i < limit; i++ {
			row := sh.rows[i]
			if len(row) == 0 {
				continue
			}
			text := row[0]
			if wholeLine {
				text = strings.Join(row, ",")
			}
			if strings.Contains(text, schema.HeaderMarker) {
				return sh, i, true
			}
		}
	}
	return sheet{}, 0, false
}

// findVersion looks for a schema tag in any cell above the header.
func findVersion(rows [][]string) (string, bool) {
	for _, row := range rows {
		for _, cell := range row {
			if v, ok := schema.ParseVersionTag(cell); ok {
				return v, true
			}
		}
	}
	return "", false
}

// mapRows converts the rows after header into records.
func mapRows(rows [][]string, header int, report *Report) []types.EmployeeRecord {
	columns := schema.Columns()

	var records []types.EmployeeRecord
	for i := header + 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		first := ""
		if len(row) > 0 {
			first = strings.TrimSpace(row[0])
		}
		switch {
		case first == "":
			report.Blank = append(report.Blank, rowNum)
			continue
		case schema.IsSampleName(first):
			report.Sample = append(report.Sample, rowNum)
			continue
		case schema.IsWatermark(first):
			report.Watermark = append(report.Watermark, rowNum)
			continue
		}

		var rec types.EmployeeRecord
		for c, col := range columns {
			if c < len(row) {
				*col.Field(&rec) = strings.TrimSpace(row[c])
			}
		}
		if !rec.Eligible() {
			report.Ineligible = append(report.Ineligible, rowNum)
			continue
		}

		rec.ID = len(records) + 1
		records = append(records, rec)
	}
	return records
}
