package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(total int, ts string) report.Record {
	cat := scoring.Classify(total)
	return report.Record{
		Personal:  assessment.PersonalInfo{Name: "Omar", Height: "180", Weight: "81"},
		Answers:   map[string]int{"diet-1": 2},
		Medical:   assessment.MedicalHistory{Conditions: []string{"heart"}, FamilyHistory: assessment.No, Medications: assessment.No},
		Scores:    scoring.Scores{Diet: total, Total: total},
		Level:     cat.Level,
		Category:  cat.Name.EN,
		Lang:      catalog.LangEN,
		Timestamp: ts,
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	db, err := sql.Open("sqlite", filepath.Join(dir, "lifetest.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name IN ('reports','drafts')`).Scan(&n); err != nil {
		t.Fatalf("query schema: %v", err)
	}
	if n != 2 {
		t.Errorf("found %d tables, want 2", n)
	}
}

func TestNew_OpenFailure(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }

	if _, err := New(Config{DataDir: t.TempDir()}); err == nil {
		t.Fatal("New() should fail when the database cannot be opened")
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := New(Config{DataDir: dir})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	rec := sampleRecord(20, "2026-01-01T10:00:00Z")
	id, err := s1.Save(context.Background(), &rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s1.Close()

	s2, err := New(Config{DataDir: dir})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Get(context.Background(), id); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}

// ─── Reports ─────────────────────────────────────────────────────────────────

func TestSave_AssignsIDAndRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord(30, "2026-01-02T10:00:00Z")
	id, err := s.Save(ctx, &rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("Save id = %q, record id = %q", id, rec.ID)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Scores != rec.Scores || got.Level != scoring.LevelHealthy || got.Personal.Name != "Omar" {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
	if len(got.Medical.Conditions) != 1 || got.Medical.Conditions[0] != "heart" {
		t.Errorf("conditions = %v, want [heart]", got.Medical.Conditions)
	}
}

func TestSave_KeepsGivenIDAndReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord(10, "2026-01-02T10:00:00Z")
	rec.ID = "fixed"
	if _, err := s.Save(ctx, &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec2 := sampleRecord(20, "2026-01-02T10:00:00Z")
	rec2.ID = "fixed"
	if _, err := s.Save(ctx, &rec2); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Scores.Total != 20 {
		t.Errorf("List = %+v, want one record with total 20", all)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, report.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestList_OldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, ts := range []string{"2026-02-03T00:00:00Z", "2026-02-01T00:00:00Z", "2026-02-02T00:00:00Z"} {
		rec := sampleRecord(5, ts)
		if _, err := s.Save(ctx, &rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"2026-02-01T00:00:00Z", "2026-02-02T00:00:00Z", "2026-02-03T00:00:00Z"}
	for i, r := range all {
		if r.Timestamp != want[i] {
			t.Errorf("List[%d].Timestamp = %s, want %s", i, r.Timestamp, want[i])
		}
	}
}

func TestList_Empty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List = %v, want empty", all)
	}
}

func TestCountByLevel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, total := range []int{5, 10, 20, 30} {
		rec := sampleRecord(total, "2026-01-01T00:00:00Z")
		if _, err := s.Save(ctx, &rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := s.CountByLevel(ctx)
	if err != nil {
		t.Fatalf("CountByLevel: %v", err)
	}
	if got["unhealthy"] != 2 || got["moderate"] != 1 || got["healthy"] != 1 {
		t.Errorf("CountByLevel = %v", got)
	}
}

// ─── Drafts ──────────────────────────────────────────────────────────────────

func TestDrafts_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := assessment.Snapshot{
		Index:    1,
		Lang:     catalog.LangAR,
		Personal: assessment.PersonalInfo{Name: "Lina"},
		Answers:  []assessment.Answer{{QuestionID: "diet-1", Value: 1}},
	}
	id, err := s.CreateDraft(ctx, snap)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	got, err := s.LoadDraft(ctx, id)
	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if got.Index != 1 || got.Lang != catalog.LangAR || got.Personal.Name != "Lina" || len(got.Answers) != 1 {
		t.Errorf("LoadDraft = %+v", got)
	}

	snap.Index = 2
	if err := s.SaveDraft(ctx, id, snap); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	got, _ = s.LoadDraft(ctx, id)
	if got.Index != 2 {
		t.Errorf("Index after save = %d, want 2", got.Index)
	}

	if err := s.DeleteDraft(ctx, id); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	if _, err := s.LoadDraft(ctx, id); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("LoadDraft after delete error = %v, want ErrDraftNotFound", err)
	}
}

func TestPruneDrafts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orig := timeNow
	defer func() { timeNow = orig }()

	timeNow = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	old, _ := s.CreateDraft(ctx, assessment.Snapshot{})
	timeNow = func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }
	fresh, _ := s.CreateDraft(ctx, assessment.Snapshot{})

	n, err := s.PruneDrafts(ctx, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneDrafts: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, err := s.LoadDraft(ctx, old); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("old draft still present: %v", err)
	}
	if _, err := s.LoadDraft(ctx, fresh); err != nil {
		t.Errorf("fresh draft lost: %v", err)
	}
}
