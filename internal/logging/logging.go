// Package logging sets up the structured log of a run: JSON records in a
// size-rotated file.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time

	w *lumberjack.Logger
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
}

// New logs to file, rotated at 32 MB with one backup kept. An invalid
// level falls back to info.
func New(level string, file string) *Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, using info\n", err)
	}

	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    32, // MB
		MaxBackups: 1,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 256
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to create log directory: %v\n", err)
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})),
		LogFile: w.Filename,
		Start:   time.Now(),
		w:       w,
	}
	l.Info("run started",
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH),
		slog.Int("NumCPUs", runtime.NumCPU()))
	return l
}

// Close flushes the log file.
func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	l.Info("run finished", slog.Duration("elapsed", time.Since(l.Start)))
	return l.w.Close()
}
