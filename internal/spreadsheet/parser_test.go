package spreadsheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/fiquant/taxpro-bulk/internal/schema"
	"github.com/fiquant/taxpro-bulk/internal/templategen"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

const csvHeader = "Employee Name*,Tax ID,Basic Salary*,Housing Allowance,Transport Allowance,Meal Allowance,Utility Allowance,Leave Allowance,Other Allowance,BIK - Vehicle,BIK - Housing,Bonus,Pension Contribution,NHF Contribution,Life Insurance,Health Insurance,NHIS Contribution,Annual Rent,Mortgage Interest\n"

func newParser() *Parser {
	return New(Options{}, nil)
}

// templateWith returns the generated template with rows written from the
// first editable row down.
func templateWith(t *testing.T, edit func(f *excelize.File)) []byte {
	t.Helper()
	f, err := templategen.Generate(templategen.Options{})
	if err != nil {
		t.Fatalf("generate template: %v", err)
	}
	defer f.Close()
	if edit != nil {
		edit(f)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write template: %v", err)
	}
	return buf.Bytes()
}

func TestUnmodifiedTemplateYieldsNoRecords(t *testing.T) {
	records, report, err := newParser().ParseWithReport(templateWith(t, nil), "template.xlsx")
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if !errors.Is(err, types.ErrNoValidRecords) || types.KindOf(err) != types.KindFormat {
		t.Fatalf("expected no-valid-records format error, got %v", err)
	}
	if len(report.Sample) != 3 || len(report.Watermark) != 5 {
		t.Fatalf("expected 3 sample and 5 watermark rows skipped, got %+v", report)
	}
	if report.HeaderRow != templategen.HeaderRow || report.Version != schema.Version {
		t.Fatalf("unexpected header row or version: %+v", report)
	}
}

func TestFilledTemplate(t *testing.T) {
	data := templateWith(t, func(f *excelize.File) {
		f.SetSheetRow(templategen.DataSheet, "A18", &[]interface{}{"Tunde Bakare", "998877", "320000", "80000"})
		f.SetSheetRow(templategen.DataSheet, "A19", &[]interface{}{"No Salary"})
		f.SetSheetRow(templategen.DataSheet, "A20", &[]interface{}{"Ngozi Eze", "", 150000})
	})

	records, err := newParser().Parse(data, "Staff.XLSX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != 1 || records[0].Name != "Tunde Bakare" || records[0].HousingAllowance != "80000" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].ID != 2 || records[1].Name != "Ngozi Eze" || records[1].BasicSalary == "" {
		t.Fatalf("unexpected second record %+v", records[1])
	}
	if records[0].Calculated || records[0].Result != nil {
		t.Fatal("expected parsed records to be uncalculated")
	}
}

func TestSchemaVersionMismatchRejected(t *testing.T) {
	data := templateWith(t, func(f *excelize.File) {
		f.SetCellValue(templategen.DataSheet, "B2", schema.VersionTagPrefix+" paye-bulk/v0")
		f.SetSheetRow(templategen.DataSheet, "A18", &[]interface{}{"Tunde", "", "100"})
	})
	_, err := newParser().Parse(data, "old.xlsx")
	if !errors.Is(err, types.ErrSchemaMismatch) || types.KindOf(err) != types.KindFormat {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestCSVScenario(t *testing.T) {
	data := []byte(csvHeader +
		"Tunde Bakare,,500000,,,,,,,,,,,,,,,,\n" +
		"Amaka Obi,,,20000,,,,,,,,,,,,,,,\n")

	records, err := newParser().Parse(data, "staff.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Tunde Bakare" || records[0].BasicSalary != "500000" {
		t.Fatalf("expected only Tunde, got %+v", records)
	}
}

func TestCSVRowEligibility(t *testing.T) {
	data := []byte(csvHeader +
		",,500000\n" +
		"Tunde,,\n" +
		"Chioma,,75000\n")

	records, report, err := newParser().ParseWithReport(data, "staff.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Chioma" {
		t.Fatalf("expected only Chioma, got %+v", records)
	}
	if records[0].HousingAllowance != "" || records[0].MortgageInterest != "" {
		t.Fatalf("expected missing cells to stay blank, got %+v", records[0])
	}
	if len(report.Blank) != 1 || len(report.Ineligible) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCSVQuotedCommasAndPreamble(t *testing.T) {
	data := []byte("Fiquant TaxPro Bulk PAYE Calculator\n" +
		"Generated: today,Schema: " + schema.Version + "\n" +
		"\n" +
		csvHeader +
		"\"Okafor, Adaeze Jr.\",\"TIN, 42\",\"1,250,000\"\n" +
		"John Doe,,100\n" +
		"© 2026 Fiquant TaxPro,,100\n")

	records, err := newParser().Parse(data, "staff.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Name != "Okafor, Adaeze Jr." || r.TaxID != "TIN, 42" || r.BasicSalary != "1,250,000" {
		t.Fatalf("quoted fields not kept intact: %+v", r)
	}
}

func TestCSVEncodings(t *testing.T) {
	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte(csvHeader+"Zoë Adé,,1000\n")...)
	records, err := newParser().Parse(bom, "bom.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Name != "Zoë Adé" {
		t.Fatalf("expected UTF-8 name, got %q", records[0].Name)
	}

	latin, err := charmap.Windows1252.NewEncoder().Bytes([]byte(csvHeader + "Zoë Adé,,1000\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	records, err = newParser().Parse(latin, "latin.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Name != "Zoë Adé" {
		t.Fatalf("expected Windows-1252 name decoded, got %q", records[0].Name)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	_, err := newParser().Parse([]byte("x"), "staff.pdf")
	if !errors.Is(err, types.ErrUnsupportedExtension) || types.KindOf(err) != types.KindValidation {
		t.Fatalf("expected unsupported extension, got %v", err)
	}
	if !strings.Contains(err.Error(), ".csv, .xlsx, .xls") {
		t.Fatalf("expected accepted types in message, got %q", err.Error())
	}
}

func TestHeaderNotFound(t *testing.T) {
	_, err := newParser().Parse([]byte("Name,Salary\nTunde,100\n"), "staff.csv")
	if !errors.Is(err, types.ErrHeaderNotFound) || types.KindOf(err) != types.KindFormat {
		t.Fatalf("expected header not found, got %v", err)
	}
}

func TestHeaderScanLimit(t *testing.T) {
	data := []byte(strings.Repeat("note\n", 5) + csvHeader + "Tunde,,100\n")
	p := New(Options{HeaderScanRows: 3}, nil)
	if _, err := p.Parse(data, "staff.csv"); !errors.Is(err, types.ErrHeaderNotFound) {
		t.Fatalf("expected header beyond scan limit to be missed, got %v", err)
	}
}

func TestCorruptWorkbooks(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00, 0x13, 0x37}, 64)
	for _, name := range []string{"staff.xlsx", "staff.xls"} {
		_, err := newParser().Parse(garbage, name)
		if !errors.Is(err, types.ErrParseFailed) || types.KindOf(err) != types.KindFormat {
			t.Fatalf("%s: expected parse failure, got %v", name, err)
		}
	}
}

func TestDecoderPanicIsRecovered(t *testing.T) {
	p := newParser()
	_, err := p.decode(func([]byte) ([]sheet, error) { panic("index out of range") }, nil)
	if err == nil || !strings.Contains(err.Error(), "index out of range") {
		t.Fatalf("expected panic converted to error, got %v", err)
	}
}
