package cmd

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

const csvHeader = "Employee Name*,Tax ID,Basic Salary*,Housing Allowance,Transport Allowance,Meal Allowance,Utility Allowance,Leave Allowance,Other Allowance,BIK - Vehicle,BIK - Housing,Bonus,Pension Contribution,NHF Contribution,Life Insurance,Health Insurance,NHIS Contribution,Annual Rent,Mortgage Interest\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New("boom"), 1},
		{types.NewError(types.KindValidation, nil, "bad input", ""), 2},
		{types.NewError(types.KindFormat, nil, "not the template", ""), 3},
		{types.NewError(types.KindQuotaExceeded, nil, "limit", ""), 4},
		{types.NewError(types.KindSerialization, nil, "encode", ""), 5},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("%v: expected %d, got %d", c.err, c.want, got)
		}
	}
}

func TestFileFlagIsRequired(t *testing.T) {
	for _, c := range []*cobra.Command{importCmd, calculateCmd} {
		f := c.Flags().Lookup("file")
		if f == nil {
			t.Fatalf("%s: expected --file flag", c.Name())
		}
		if got := f.Annotations[cobra.BashCompOneRequiredFlag]; len(got) != 1 || got[0] != "true" {
			t.Fatalf("%s: expected --file marked required, got %v", c.Name(), got)
		}
	}
}

func TestTemplateCalculateExport(t *testing.T) {
	for _, k := range []string{"PAYE_TIER", "PAYE_LOG_LEVEL", "PAYE_QUOTA_STORE", "REDIS_ADDRESS"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	chdir(t, dir)

	cfgPath := filepath.Join(dir, "config.yaml")
	os.WriteFile(cfgPath, []byte(`
output_dir: `+filepath.Join(dir, "out")+`
log_file: `+filepath.Join(dir, "logs", "bulk.log")+`
quota:
  store: file
  path: `+filepath.Join(dir, "state", "quota.yaml")+`
company:
  name: Acme Ltd
`), 0644)

	tmpl := filepath.Join(dir, "template.xlsx")
	if _, err := run(t, "template", "--config", cfgPath, "--out", tmpl); err != nil {
		t.Fatalf("template: %v", err)
	}
	if _, err := run(t, "import", "--config", cfgPath, "--file", tmpl); !errors.Is(err, types.ErrNoValidRecords) {
		t.Fatalf("expected blank template to hold no employees, got %v", err)
	}

	staff := filepath.Join(dir, "staff.csv")
	os.WriteFile(staff, []byte(csvHeader+"Tunde Bakare,,500000,100000\nAmaka Obi,,,20000\n"), 0644)

	exportPath := filepath.Join(dir, "export.csv")
	out, err := run(t, "calculate", "--config", cfgPath, "--file", staff, "--tier", "free",
		"--export", "--out", exportPath, "--month", "October", "--year", "2026")
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !strings.Contains(out, "Calculated 1 of 1 employees") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	f, err := os.Open(exportPath)
	if err != nil {
		t.Fatalf("export missing: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil || len(rows) != 2 || len(rows[0]) != 25 || rows[1][0] != "Tunde Bakare" {
		t.Fatalf("unexpected export %v (%v)", rows, err)
	}

	out, err = run(t, "quota", "--config", cfgPath, "--tier", "free")
	if err != nil {
		t.Fatalf("quota: %v", err)
	}
	if !strings.Contains(out, "Submissions used:  1 of 3") {
		t.Fatalf("expected one submission recorded, got:\n%s", out)
	}
}

// chdir changes the working directory for the test and restores it on
// cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
