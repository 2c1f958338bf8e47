package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyFileWriter appends to <dir>/<component>-<date>.log and moves to a
// new file when the date changes. The file is opened on first write.
type dailyFileWriter struct {
	mu        sync.Mutex
	dir       string
	component string
	now       func() time.Time

	day  string
	file *os.File
}

func newDailyFileWriter(dir, component string) *dailyFileWriter {
	return &dailyFileWriter{dir: dir, component: component, now: time.Now}
}

// Write implements io.Writer.
func (w *dailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format("2006-01-02")
	if w.file == nil || day != w.day {
		if err := w.open(day); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *dailyFileWriter) open(day string) error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(w.path(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	w.file = file
	w.day = day
	return nil
}

func (w *dailyFileWriter) path(day string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.component, day))
}

// Close implements io.Closer.
func (w *dailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
