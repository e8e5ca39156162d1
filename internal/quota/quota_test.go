package quota

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func TestRollover(t *testing.T) {
	s, changed := Rollover(State{MonthKey: "2026-10", Counter: 3}, at(2026, 10, 31))
	if changed || s.Counter != 3 {
		t.Fatalf("expected same-month state unchanged, got %+v changed=%v", s, changed)
	}
	s, changed = Rollover(State{MonthKey: "2026-10", Counter: 3}, at(2026, 11, 1))
	if !changed || s != (State{MonthKey: "2026-11", Counter: 0}) {
		t.Fatalf("expected reset for new month, got %+v changed=%v", s, changed)
	}
	s, changed = Rollover(State{}, at(2026, 10, 15))
	if !changed || s.MonthKey != "2026-10" {
		t.Fatalf("expected empty state to adopt current month, got %+v", s)
	}
}

func TestNextReset(t *testing.T) {
	if got := NextReset(at(2026, 12, 20)); !got.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2027-01-01, got %s", got)
	}
}

func TestFreeTierMonthlyCeilingAndReset(t *testing.T) {
	ctx := context.Background()
	now := at(2026, 10, 15)
	store := NewMemoryStore(State{MonthKey: "2026-10", Counter: 2})
	g := NewGuard(store, nil, WithClock(func() time.Time { return now }))

	d, err := g.Evaluate(ctx, 1, Free)
	if err != nil || !d.Allowed() {
		t.Fatalf("expected allowed, got %+v err=%v", d, err)
	}
	s, err := g.Consume(ctx, Free)
	if err != nil || s.Counter != 3 {
		t.Fatalf("expected counter 3, got %+v err=%v", s, err)
	}

	d, err = g.Evaluate(ctx, 1, Free)
	if err != nil || d.Outcome != MonthlyLimitExceeded {
		t.Fatalf("expected monthly limit exceeded, got %+v err=%v", d, err)
	}
	if !d.ResetDate.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reset date %s", d.ResetDate)
	}
	if !errors.Is(d.Err(), types.ErrMonthlyLimitExceeded) || types.KindOf(d.Err()) != types.KindQuotaExceeded {
		t.Fatalf("unexpected error %v", d.Err())
	}

	now = at(2026, 11, 1)
	d, err = g.Evaluate(ctx, 1, Free)
	if err != nil || !d.Allowed() || d.Used != 0 {
		t.Fatalf("expected reset and allowed, got %+v err=%v", d, err)
	}
	stored, _ := store.Read(ctx)
	if stored != (State{MonthKey: "2026-11", Counter: 0}) {
		t.Fatalf("expected rollover persisted before increment, got %+v", stored)
	}
	if s, _ := g.Consume(ctx, Free); s.Counter != 1 {
		t.Fatalf("expected counter 1 after reset, got %d", s.Counter)
	}
}

func TestStaffCeiling(t *testing.T) {
	g := NewGuard(NewMemoryStore(State{}), nil)
	d, err := g.Evaluate(context.Background(), 11, Free)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Outcome != StaffLimitExceeded || d.Limit != 10 {
		t.Fatalf("expected staff limit 10 exceeded, got %+v", d)
	}
	if d, _ := g.Evaluate(context.Background(), 10, Free); !d.Allowed() {
		t.Fatalf("expected exactly 10 staff to be allowed, got %+v", d)
	}
}

func TestPaidTiersBypassMonthlyCeiling(t *testing.T) {
	g := NewGuard(NewMemoryStore(State{MonthKey: MonthKey(time.Now()), Counter: 500}), nil)
	for _, tier := range []Tier{Starter, Pro, Premium, Enterprise} {
		d, err := g.Evaluate(context.Background(), 5, tier)
		if err != nil || !d.Allowed() {
			t.Fatalf("expected %s allowed, got %+v err=%v", tier, d, err)
		}
	}
}

func TestProStaffLimitIsConfigurable(t *testing.T) {
	if DefaultLimits(0)[Pro].StaffLimit != ProStaffLimit {
		t.Fatal("expected default pro staff limit")
	}
	g := NewGuard(NewMemoryStore(State{}), DefaultLimits(50))
	if d, _ := g.Evaluate(context.Background(), 50, Pro); !d.Allowed() {
		t.Fatalf("expected 50 staff allowed with override, got %+v", d)
	}
	if d, _ := g.Evaluate(context.Background(), 51, Pro); d.Outcome != StaffLimitExceeded {
		t.Fatalf("expected 51 staff rejected, got %+v", d)
	}
}

func TestUnknownTier(t *testing.T) {
	g := NewGuard(NewMemoryStore(State{}), nil)
	if _, err := g.Evaluate(context.Background(), 1, Tier("gold")); types.KindOf(err) != types.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseTier(" PRO "); err != nil {
		t.Fatalf("expected tier to parse, got %v", err)
	}
}

func TestFileStorePersistsTwoStringKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "quota.yaml")
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("other.key: keep\n"), 0644)

	fs := NewFileStore(path, "")
	if err := fs.Write(ctx, State{MonthKey: "2026-10", Counter: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("quota file is not YAML: %v", err)
	}
	want := map[string]string{
		"paye_bulk_quota.month_key": "2026-10",
		"paye_bulk_quota.counter":   "2",
		"other.key":                 "keep",
	}
	for k, v := range want {
		if got, ok := raw[k].(string); !ok || got != v {
			t.Fatalf("expected string %q under %s, got %#v", v, k, raw[k])
		}
	}

	got, err := NewFileStore(path, "").Read(ctx)
	if err != nil || got != (State{MonthKey: "2026-10", Counter: 2}) {
		t.Fatalf("expected state to round trip, got %+v err=%v", got, err)
	}
}

func TestFileStoreMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	got, err := NewFileStore(filepath.Join(dir, "absent.yaml"), "").Read(ctx)
	if err != nil || got != (State{}) {
		t.Fatalf("expected zero state for missing file, got %+v err=%v", got, err)
	}

	path := filepath.Join(dir, "quota.yaml")
	os.WriteFile(path, []byte("paye_bulk_quota.month_key: \"2026-10\"\npaye_bulk_quota.counter: \"many\"\n"), 0644)
	got, err = NewFileStore(path, "").Read(ctx)
	if err != nil || got.Counter != 0 || got.MonthKey != "2026-10" {
		t.Fatalf("expected corrupt counter to read as 0, got %+v err=%v", got, err)
	}
}

func TestGateDefaultsOpenEveryFeature(t *testing.T) {
	g, err := NewGate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tier := range Tiers {
		for _, f := range Features {
			if !g.CanUse(f, tier) {
				t.Fatalf("expected %s open on %s", f, tier)
			}
		}
	}
	if g.CanUse(FeatureBulkUpload, Tier("gold")) {
		t.Fatal("expected unknown tier denied")
	}
	if info := g.DescribeGate(FeatureCSVExport, Free); !info.Allowed || info.CTATier != "" {
		t.Fatalf("expected allowed gate info, got %+v", info)
	}
}

func TestGateCustomMinimums(t *testing.T) {
	g, err := NewGateWith(Minimums{
		FeatureBulkCalculate: Free,
		FeatureCSVExport:     Starter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.CanUse(FeatureBulkCalculate, Free) || !g.CanUse(FeatureCSVExport, Enterprise) {
		t.Fatal("expected inherited grants")
	}
	if g.CanUse(FeatureCSVExport, Free) {
		t.Fatal("expected csv export locked on free")
	}

	info := g.DescribeGate(FeatureCSVExport, Free)
	if info.Allowed || info.CTATier != Starter || !strings.Contains(info.Message, "Starter") {
		t.Fatalf("unexpected gate info %+v", info)
	}
	if info := g.DescribeGate(FeatureBulkUpload, Enterprise); info.Allowed || info.CTATier != "" {
		t.Fatalf("expected unlisted feature unavailable, got %+v", info)
	}
}
