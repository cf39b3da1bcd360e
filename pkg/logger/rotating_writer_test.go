package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDailyRotatingWriterRotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	w, err := NewDailyRotatingWriter(dir, FilenameFormat, 0)
	if err != nil {
		t.Fatalf("NewDailyRotatingWriter: %v", err)
	}
	defer w.Close()

	w.now = func() time.Time { return day }
	if _, err := w.WriteString("first\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.now = func() time.Time { return day.Add(2 * time.Minute) }
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "fitcoach-2026-03-01.log"))
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "fitcoach-2026-03-02.log"))
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if strings.TrimSpace(string(first)) != "first" || strings.TrimSpace(string(second)) != "second" {
		t.Fatalf("unexpected contents %q / %q", first, second)
	}
	if got := w.Path(); got != filepath.Join(dir, "fitcoach-2026-03-02.log") {
		t.Fatalf("Path() = %s", got)
	}
}

func TestDailyRotatingWriterPrunesOldDays(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"2026-02-26", "2026-02-27", "2026-02-28"} {
		if err := os.WriteFile(filepath.Join(dir, "fitcoach-"+d+".log"), []byte("old\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewDailyRotatingWriter(dir, FilenameFormat, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local) }
	if _, err := w.WriteString("today\n"); err != nil {
		t.Fatal(err)
	}

	logs, err := filepath.Glob(filepath.Join(dir, "fitcoach-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) > 3 {
		t.Fatalf("kept %d files: %v", len(logs), logs)
	}
	if _, err := os.Stat(filepath.Join(dir, "fitcoach-2026-03-01.log")); err != nil {
		t.Fatalf("current file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fitcoach-2026-02-26.log")); !os.IsNotExist(err) {
		t.Fatal("oldest file should be pruned")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatal("unrelated files must be left alone")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := SetupFallbackLogger()
	if OrDiscard(l) != l {
		t.Fatal("OrDiscard should keep a non-nil logger")
	}
}
