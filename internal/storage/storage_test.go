package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/lottoracle/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(100, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(startedAt time.Time, draws int) *models.ScrapeRun {
	return &models.ScrapeRun{
		ID:         uuid.New().String(),
		LottoType:  models.LottoThai,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(3 * time.Second),
		DrawCount:  draws,
		Pages:      1,
	}
}

func testDraw(date, first, lastTwo string) models.Draw {
	return models.Draw{
		LottoType:     models.LottoThai,
		DrawDate:      date,
		FirstPrize:    first,
		LastTwoDigits: lastTwo,
	}
}

func TestStorage_SaveRunAndListDraws(t *testing.T) {
	s := newTestStorage(t)
	draws := []models.Draw{
		testDraw("2024-10-01", "333333", "33"),
		testDraw("2024-09-16", "222222", ""),
		testDraw("2024-09-01", "111111", "11"),
	}
	if err := s.SaveRun(testRun(time.Now(), len(draws)), draws); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.ListDraws(models.LottoThai, 0)
	if err != nil {
		t.Fatalf("ListDraws: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d draws, want 3", len(got))
	}
	for i := range draws {
		if got[i] != draws[i] {
			t.Errorf("draw %d = %+v, want %+v", i, got[i], draws[i])
		}
	}

	limited, err := s.ListDraws(models.LottoThai, 2)
	if err != nil {
		t.Fatalf("ListDraws: %v", err)
	}
	if len(limited) != 2 || limited[0].DrawDate != "2024-10-01" {
		t.Errorf("limited list = %+v", limited)
	}
}

func TestStorage_UpsertReplacesExistingDraw(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	if err := s.SaveRun(testRun(now, 1), []models.Draw{testDraw("2024-09-01", "111111", "")}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(testRun(now.Add(time.Minute), 1), []models.Draw{testDraw("2024-09-01", "111111", "11")}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	n, err := s.CountDraws(models.LottoThai)
	if err != nil {
		t.Fatalf("CountDraws: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d draws, want 1", n)
	}
	got, _ := s.ListDraws(models.LottoThai, 0)
	if got[0].LastTwoDigits != "11" {
		t.Errorf("last two digits not updated: got %q", got[0].LastTwoDigits)
	}
}

func TestStorage_SaveRun_RejectsInvalidDraw(t *testing.T) {
	s := newTestStorage(t)
	run := testRun(time.Now(), 1)
	if err := s.SaveRun(run, []models.Draw{{LottoType: models.LottoThai, DrawDate: "2024-09-01"}}); err == nil {
		t.Fatal("expected error for draw without first prize")
	}
	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("failed save left %d runs behind", len(runs))
	}
}

func TestStorage_SaveRun_RequiresID(t *testing.T) {
	s := newTestStorage(t)
	run := testRun(time.Now(), 0)
	run.ID = ""
	if err := s.SaveRun(run, nil); err == nil {
		t.Error("expected error for run without id")
	}
}

func TestStorage_ListRuns(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()
	older := testRun(now.Add(-time.Hour), 0)
	older.Error = "fetch failed"
	newer := testRun(now, 0)

	for _, r := range []*models.ScrapeRun{older, newer} {
		if err := s.SaveRun(r, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("expected newest run first, got %s", runs[0].ID)
	}
	if runs[1].Error != "fetch failed" {
		t.Errorf("error not persisted: %q", runs[1].Error)
	}
	if !runs[0].StartedAt.Equal(newer.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", runs[0].StartedAt, newer.StartedAt)
	}
}

func TestStorage_RotatesRunsButKeepsDraws(t *testing.T) {
	s, err := New(3, ":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	now := time.Now()
	var newest string
	for i := 0; i < 6; i++ {
		run := testRun(now.Add(time.Duration(i)*time.Second), 1)
		draw := testDraw(fmt.Sprintf("2024-01-%02d", i+1), fmt.Sprintf("%06d", i), "")
		if err := s.SaveRun(run, []models.Draw{draw}); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		newest = run.ID
	}

	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
	if runs[0].ID != newest {
		t.Errorf("newest run was rotated out")
	}

	n, err := s.CountDraws(models.LottoThai)
	if err != nil {
		t.Fatalf("CountDraws: %v", err)
	}
	if n != 6 {
		t.Errorf("got %d draws, want 6", n)
	}
}

func TestStorage_ArchiveJob(t *testing.T) {
	s := newTestStorage(t)
	started := time.Now().Add(-time.Minute)
	finished := time.Now()

	running := models.JobStatus{JobID: "job-1", IsRunning: true}
	if err := s.ArchiveJob(running); err == nil {
		t.Error("expected error archiving a running job")
	}

	done := models.JobStatus{
		JobID:      "job-2",
		LottoType:  models.LottoThai,
		Progress:   []string{"page 1", "done"},
		Pages:      1,
		Results:    []models.Draw{testDraw("2024-09-01", "111111", "11")},
		StartedAt:  &started,
		FinishedAt: &finished,
	}
	if err := s.ArchiveJob(done); err != nil {
		t.Fatalf("ArchiveJob: %v", err)
	}

	runs, _ := s.ListRuns(0)
	if len(runs) != 1 || runs[0].ID != "job-2" || runs[0].DrawCount != 1 || runs[0].Pages != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestStorage_CreatesDataDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "archive.db")
	s, err := New(10, path)
	if err != nil {
		t.Fatalf("New(%s): %v", path, err)
	}
	defer s.Close()
	if err := s.SaveRun(testRun(time.Now(), 0), nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
}

func TestStorage_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a sqlite file\n", 64)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(10, path); err == nil {
		t.Fatal("expected error opening a file that is not a database")
	}

	// The failed open must not keep the file busy.
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	s, err := New(10, path)
	if err != nil {
		t.Fatalf("New after removal: %v", err)
	}
	defer s.Close()
}
