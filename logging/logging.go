package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// This is handled this way so that GlobalConfig doesn't need to be literally
// every function in the project.
var (
	Mode Flag = Nil
)

func (f Flag) String() string {
	switch f {
	case Nil:
		return "Nil"
	case Performance:
		return "Performance"
	case Debug:
		return "Debug"
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// ParseFlag converts the name of a logging mode to a Flag. Names are not case
// sensitive and an empty string is Nil.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nil", "none":
		return Nil, nil
	case "performance":
		return Performance, nil
	case "debug":
		return Debug, nil
	}
	return Nil, fmt.Errorf("'%s' is not a logging mode. Valid modes are "+
		"'Nil', 'Performance' and 'Debug'.", s)
}

// Config describes where and how the process logger writes.
type Config struct {
	// Level is a zap level name. Debug mode always logs at the debug level.
	Level string
	// Format is "console" or "json".
	Format string

	// LogFile is an optional path which receives a rotated JSON copy of
	// every log line.
	LogFile    string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

var logger atomic.Pointer[zap.Logger]

// Init builds the process logger, writing human-readable lines to console and,
// if cfg.LogFile is set, JSON lines to a rotated log file. It replaces any
// previously initialized logger and returns the new one.
func Init(cfg Config, console io.Writer) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
	}
	if Mode == Debug {
		level.SetLevel(zap.DebugLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), zapcore.AddSync(console), level),
	}
	if cfg.LogFile != "" {
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder("json"), file, level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).
		Named("deflect")
	Set(l)
	return l
}

func encoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if format == "json" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// InitStderr is Init with console output going to a locked os.Stderr.
func InitStderr(cfg Config) *zap.Logger {
	return Init(cfg, zapcore.Lock(os.Stderr))
}

// Set replaces the process logger. Passing nil restores the no-op logger.
func Set(l *zap.Logger) { logger.Store(l) }

// Log returns the process logger. It is a no-op logger until Init or Set is
// called.
func Log() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// MemString returns a string containing various statistics on the current
// memory usage of the process.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}
