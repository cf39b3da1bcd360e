package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// DailyRotatingWriter writes to one file per day and prunes old days
type DailyRotatingWriter struct {
	mu sync.Mutex

	logDir         string
	filenameFormat string
	// keep is the number of daily files retained, the current one included; 0 keeps all
	keep int

	file        *os.File
	CurrentDate string

	// now is swapped in tests to simulate a date change
	now func() time.Time
}

// NewDailyRotatingWriter opens today's file in logDir. filenameFormat must
// contain a single %s for the date.
func NewDailyRotatingWriter(logDir, filenameFormat string, keep int) (*DailyRotatingWriter, error) {
	w := &DailyRotatingWriter{
		logDir:         logDir,
		filenameFormat: filenameFormat,
		keep:           keep,
		now:            time.Now,
	}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the path of the file currently written to
func (w *DailyRotatingWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathFor(w.CurrentDate)
}

func (w *DailyRotatingWriter) pathFor(date string) string {
	return filepath.Join(w.logDir, fmt.Sprintf(w.filenameFormat, date))
}

// rotateIfNeeded opens a new file when the date has changed; callers hold w.mu
func (w *DailyRotatingWriter) rotateIfNeeded() error {
	today := w.now().Format(dateLayout)
	if today == w.CurrentDate && w.file != nil {
		return nil
	}

	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	file, err := os.OpenFile(w.pathFor(today), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.file = file
	w.CurrentDate = today

	w.prune()
	return nil
}

// prune removes the oldest daily files beyond the retention count. Dates in
// the file names sort lexically, so name order is age order.
func (w *DailyRotatingWriter) prune() {
	if w.keep <= 0 {
		return
	}
	matches, err := filepath.Glob(w.pathFor("*"))
	if err != nil || len(matches) <= w.keep {
		return
	}
	sort.Strings(matches)
	current := w.pathFor(w.CurrentDate)
	for _, old := range matches[:len(matches)-w.keep] {
		if old != current {
			_ = os.Remove(old)
		}
	}
}

// Write implements io.Writer
func (w *DailyRotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// WriteString implements io.StringWriter
func (w *DailyRotatingWriter) WriteString(s string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.WriteString(s)
}

// Close closes the current file
func (w *DailyRotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
