package common

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DailyRotatingWriter is an io.Writer that appends to <prefix><date><suffix>
// inside dir, switching files when the date changes and keeping only the
// most recent maxFiles files with the same prefix and suffix.
type DailyRotatingWriter struct {
	mu          sync.Mutex
	dir         string
	prefix      string
	suffix      string
	maxFiles    int
	currentDate string
	file        *os.File
	now         func() time.Time
}

func NewDailyRotatingWriter(dir, prefix, suffix string, maxFiles int) (*DailyRotatingWriter, error) {
	w := &DailyRotatingWriter{
		dir:      dir,
		prefix:   prefix,
		suffix:   suffix,
		maxFiles: maxFiles,
		now:      time.Now,
	}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *DailyRotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// CurrentPath is the file currently being written to.
func (w *DailyRotatingWriter) CurrentPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathFor(w.currentDate)
}

func (w *DailyRotatingWriter) pathFor(date string) string {
	return filepath.Join(w.dir, w.prefix+date+w.suffix)
}

func (w *DailyRotatingWriter) rotateIfNeeded() error {
	today := w.now().Format("2006-01-02")
	if w.currentDate == today && w.file != nil {
		return nil
	}

	if w.file != nil {
		w.file.Close()
	}

	file, err := os.OpenFile(w.pathFor(today), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w.file = file
	w.currentDate = today

	w.cleanupOldFiles()

	return nil
}

func (w *DailyRotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

var _ io.WriteCloser = (*DailyRotatingWriter)(nil)

// cleanupOldFiles removes the oldest rotated files beyond maxFiles. File
// names embed the date, so lexical order is chronological order.
func (w *DailyRotatingWriter) cleanupOldFiles() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	var rotated []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, w.prefix) && strings.HasSuffix(name, w.suffix) {
			rotated = append(rotated, name)
		}
	}

	if len(rotated) <= w.maxFiles {
		return
	}

	sort.Strings(rotated)

	for i := 0; i < len(rotated)-w.maxFiles; i++ {
		os.Remove(filepath.Join(w.dir, rotated[i]))
	}
}
