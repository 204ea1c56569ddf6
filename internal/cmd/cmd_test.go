package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
	"github.com/HendryAvila/lifetest/internal/store"
)

func init() {
	color.NoColor = true
}

// run executes the root command against an isolated data directory.
func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"LIFETEST_DATA_DIR", "LIFETEST_STORE", "LIFETEST_CATALOG", "LIFETEST_LANG", "LIFETEST_LOG_FILE", "LIFETEST_RATE_PER_MINUTE"} {
		t.Setenv(key, "")
	}
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args,
		"--config", filepath.Join(dataDir, "missing.yaml"),
		"--data-dir", dataDir,
		"--log-level", "error",
	))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("--help: %v", err)
	}
	if !strings.Contains(buf.String(), "lifestyle questionnaire") {
		t.Errorf("help text = %q, want a description of the questionnaire", buf.String())
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"serve", "http", "bot", "take", "export", "decode", "prune-drafts", "update", "version"}
	have := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "lifetest ") {
		t.Errorf("version output = %q", buf.String())
	}
}

// walkInput answers every prompt of a full assessment with the highest
// option and no conditions besides diabetes.
func walkInput(t *testing.T) string {
	t.Helper()
	cat := catalog.MustLoad()
	lines := []string{"Sara", "0500000000", "34", "2", "165", "60", "3"}
	for _, sec := range []catalog.Section{catalog.SectionDiet, catalog.SectionActivity, catalog.SectionHealth} {
		qs, err := cat.Questions(sec)
		if err != nil {
			t.Fatal(err)
		}
		for _, q := range qs {
			best := 0
			for i, o := range q.Options {
				if o.Value == q.MaxValue() {
					best = i
				}
			}
			lines = append(lines, strconv.Itoa(best+1))
		}
	}
	lines = append(lines, "1", "2", "1", "metformin")
	return strings.Join(lines, "\n") + "\n"
}

func storedReports(t *testing.T, dir string) []report.Record {
	t.Helper()
	st, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()
	recs, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	return recs
}

func TestTake_FullWalk(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, walkInput(t), "take")
	if err != nil {
		t.Fatalf("take: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Saved as ") || !strings.Contains(out, "Share code: v1.") {
		t.Errorf("output missing save confirmation:\n%s", out)
	}
	if !strings.Contains(out, "BMI: 22.0") {
		t.Errorf("output missing BMI:\n%s", out)
	}

	recs := storedReports(t, dir)
	if len(recs) != 1 {
		t.Fatalf("stored %d reports, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Scores.Total != 39 || rec.Level != scoring.LevelHealthy {
		t.Errorf("scores = %+v level %q, want 39 healthy", rec.Scores, rec.Level)
	}
	if rec.Personal.MaritalStatus != "married" || rec.Personal.Gender != "female" {
		t.Errorf("personal = %+v", rec.Personal)
	}
	if len(rec.Medical.Conditions) != 1 || rec.Medical.Conditions[0] != "diabetes" {
		t.Errorf("conditions = %v, want [diabetes]", rec.Medical.Conditions)
	}
	if rec.Medical.MedicationsDetails != "metformin" {
		t.Errorf("medication details = %q", rec.Medical.MedicationsDetails)
	}
}

func TestTake_BackKeepsAnswersThenQuit(t *testing.T) {
	dir := t.TempDir()
	input := strings.Join([]string{
		"Sara", "0500000000", "34", "2", "165", "60", "1",
		":b",
		"", "", "", "", "", "", "",
		":q",
	}, "\n") + "\n"

	out, err := run(t, dir, input, "take")
	if !errors.Is(err, errQuit) {
		t.Fatalf("take err = %v, want errQuit\n%s", err, out)
	}
	if strings.Count(out, "[1/5] Personal Information") != 2 {
		t.Errorf("personal section should be shown twice:\n%s", out)
	}
	if !strings.Contains(out, "Name [Sara]") {
		t.Errorf("kept value not offered:\n%s", out)
	}
	if got := strings.Count(out, "[2/5] Dietary Habits"); got != 2 {
		t.Errorf("diet section shown %d times, want 2", got)
	}
	if len(storedReports(t, dir)) != 0 {
		t.Error("abandoned assessment must not be saved")
	}
}

func TestTake_InvalidChoiceIsRetried(t *testing.T) {
	input := "Sara\n0500000000\n34\n9\nx\n"
	out, err := run(t, t.TempDir(), input, "take")
	if !errors.Is(err, errQuit) {
		t.Fatalf("take err = %v, want errQuit on EOF", err)
	}
	if strings.Count(out, "Enter a number from 1 to 2.") != 2 {
		t.Errorf("invalid choices should be rejected twice:\n%s", out)
	}
}

func TestParseSelection(t *testing.T) {
	conds := catalog.MustLoad().Conditions()
	tests := []struct {
		in   string
		want []string
		ok   bool
	}{
		{"", []string{}, true},
		{"0", []string{}, true},
		{"1", []string{"diabetes"}, true},
		{"1, 2", []string{"diabetes", "hypertension"}, true},
		{"7", nil, false},
		{"a", nil, false},
	}
	for _, tt := range tests {
		got, ok := parseSelection(tt.in, conds)
		if ok != tt.ok || strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseSelection(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExportAndDecode(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, walkInput(t), "take"); err != nil {
		t.Fatalf("take: %v", err)
	}

	out, err := run(t, dir, "", "export", "--stdout")
	if err != nil {
		t.Fatalf("export --stdout: %v", err)
	}
	if !strings.HasPrefix(out, "\ufeff") || strings.Count(out, "\n") != 2 {
		t.Errorf("csv = %q, want BOM, header and one row", out)
	}

	timeNow = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { timeNow = time.Now }()
	exportDir := filepath.Join(dir, "out")
	out, err = run(t, dir, "", "export", "--dir", exportDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 1 reports") {
		t.Errorf("export output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(exportDir, "lifestyle-assessments-2025-03-01.csv")); err != nil {
		t.Errorf("export file: %v", err)
	}

	code, err := report.Encode(storedReports(t, dir)[0])
	if err != nil {
		t.Fatal(err)
	}
	out, err = run(t, dir, "", "decode", code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, "Lifestyle Assessment Report") {
		t.Errorf("decode output = %q", out)
	}

	if _, err := run(t, dir, "", "decode", "v1.garbage"); !errors.Is(err, report.ErrUndecodable) {
		t.Errorf("decode garbage err = %v, want ErrUndecodable", err)
	}
}

func TestPruneDrafts(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "prune-drafts")
	if err != nil {
		t.Fatalf("prune-drafts: %v", err)
	}
	if out != "Removed 0 drafts\n" {
		t.Errorf("output = %q", out)
	}
	if _, err := run(t, t.TempDir(), "", "prune-drafts", "--older-than", "0s"); err == nil {
		t.Error("zero --older-than should fail")
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIFETEST_RATE_PER_MINUTE", "lots")
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--stdout", "--config", filepath.Join(dir, "none.yaml"), "--data-dir", dir})
	if err := root.Execute(); err == nil {
		t.Error("bad environment override should fail")
	}
}
