package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// levelWriter writes one level's entries to <dir>/<date>/<level>.log,
// switching file when the date changes. Each file rotates through lumberjack.
type levelWriter struct {
	cfg     Config
	level   string
	now     func() time.Time
	mu      sync.Mutex
	date    string
	current *lumberjack.Logger
}

func newLevelWriter(cfg Config, level string) *levelWriter {
	return &levelWriter{cfg: cfg, level: level, now: time.Now}
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := w.now().Format("2006-01-02")
	if w.current == nil || date != w.date {
		if w.current != nil {
			_ = w.current.Close()
		}
		w.current = w.open(date)
		w.date = date
	}
	return w.current.Write(p)
}

func (w *levelWriter) open(date string) *lumberjack.Logger {
	dir := filepath.Join(w.cfg.Directory, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = w.cfg.Directory
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, w.level+".log"),
		MaxSize:    w.cfg.MaxSize,
		MaxBackups: w.cfg.MaxBackups,
		MaxAge:     w.cfg.MaxAge,
		Compress:   w.cfg.Compress,
		LocalTime:  true,
	}
}

// Sync is a no-op: lumberjack writes straight to the file.
func (w *levelWriter) Sync() error { return nil }

func (w *levelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}
