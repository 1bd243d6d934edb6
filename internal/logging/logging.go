// Package logging builds the process logger: zap cores for the console and an
// optional rotating file, with the standard library logger redirected into it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-while/go-chainui/internal/config"
)

// New creates a logger writing to out (usually os.Stderr) and, when cfg.File
// is set, to a rotating file. The returned func flushes and restores the std logger.
func New(cfg config.LogConfig, out *os.File) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: level %q", config.ErrInvalidLog, cfg.Level)
	}

	format := cfg.Format
	if format == config.LogFormatAuto {
		format = config.LogFormatJSON
		if isTerminal(out) {
			format = config.LogFormatConsole
		}
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(format, isTerminal(out)), zapcore.Lock(out), level),
	}
	if cfg.File != "" {
		w, err := fileWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder(config.LogFormatJSON, false), w, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	undo := zap.RedirectStdLog(logger)
	return logger, func() {
		_ = logger.Sync()
		undo()
	}, nil
}

// NewWriter creates a logger that writes JSON lines to w. Used by tests.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(encoder(config.LogFormatJSON, false), zapcore.AddSync(w), level)
	return zap.New(core)
}

func encoder(format string, color bool) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == config.LogFormatConsole {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func fileWriter(cfg config.LogConfig) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
	}), nil
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
