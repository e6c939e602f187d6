// Package logging builds the process logger: slog text output on the
// console, optionally tee'd to a size-rotated log file.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"cloudeng.io/logging/ctxlog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig holds file logging configuration.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns default file logging settings.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Setup builds a logger at the given level writing to stdout and, when
// logFile is set, to a rotated file. The returned logger is also installed
// as the slog default. Close the returned closer on shutdown.
func Setup(level, logFile string) (*slog.Logger, io.Closer) {
	fileCfg := FileConfig{}
	if logFile != "" {
		fileCfg = DefaultFileConfig(logFile)
	}
	logger, closer := New(level, fileCfg, os.Stdout)
	slog.SetDefault(logger)
	return logger, closer
}

// New builds a logger without touching the slog default. A nil console
// disables console output.
func New(level string, fileCfg FileConfig, console io.Writer) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	var closer io.Closer = nopCloser{}
	if fileCfg.Path != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   fileCfg.Path,
			MaxSize:    fileCfg.MaxSizeMB,
			MaxBackups: fileCfg.MaxBackups,
			MaxAge:     fileCfg.MaxAgeDays,
			Compress:   fileCfg.Compress,
			LocalTime:  true,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})), closer
}

// ParseLevel converts a config level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Context returns ctx carrying logger for ctxlog consumers.
func Context(ctx context.Context, logger *slog.Logger) context.Context {
	return ctxlog.WithLogger(ctx, logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
