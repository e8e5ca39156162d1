package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sheet is one worksheet as a grid of cell text.
type sheet struct {
	name string
	rows [][]string
}

// =============================================================================
// CSV
// =============================================================================

// decodeText converts raw CSV bytes to UTF-8 and strips any byte order mark.
//
// Supported encodings:
//   - "auto" (or empty): UTF-8 when the bytes are valid UTF-8 or carry a BOM,
//     Windows-1252 otherwise (spreadsheets saved as "CSV" on Windows)
//   - "utf-8"
//   - "windows-1252"
func decodeText(data []byte, encoding string) ([]byte, error) {
	utf := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	var dec transform.Transformer
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "auto":
		if utf8.Valid(data) || hasUTF16BOM(data) {
			dec = utf
		} else {
			dec = charmap.Windows1252.NewDecoder()
		}
	case "utf-8", "utf8":
		dec = utf
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	return out, nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFE, 0xFF}) || bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}

// readCSV tokenizes comma-delimited, double-quote-escaped text. Rows may have
// any number of fields.
func readCSV(data []byte, encoding string) ([]sheet, error) {
	text, err := decodeText(data, encoding)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = ','
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return []sheet{{name: "csv", rows: rows}}, nil
}

// =============================================================================
// XLSX
// =============================================================================

func readXLSX(data []byte) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return sheets, nil
}

// =============================================================================
// XLS (legacy binary)
// =============================================================================

func readXLS(data []byte) ([]sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}

	var sheets []sheet
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, sheet{name: ws.Name, rows: rows})
	}
	return sheets, nil
}
