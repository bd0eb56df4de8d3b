// Package logging provides the structured logger used by the orders and users
// services. A single zap logger backs every LoggerV2 in the process; it is
// created lazily on first use and replaced by Init at startup.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Config controls where and how verbosely the process logs.
type Config struct {
	Service string
	Dir     string
	Level   string
}

var (
	baseMu sync.RWMutex
	base   *zap.Logger
)

// Init builds the process-wide logger. Entries go to stdout and, when Dir is
// set, to a rotated <Dir>/<Service>.log file.
func Init(cfg Config) error {
	z, err := build(cfg)
	if err != nil {
		return err
	}

	baseMu.Lock()
	old := base
	base = z
	baseMu.Unlock()

	if old != nil {
		_ = old.Sync()
	}
	return nil
}

// Replace swaps the process-wide logger and returns a func restoring the previous one.
func Replace(z *zap.Logger) func() {
	baseMu.Lock()
	prev := base
	base = z
	baseMu.Unlock()

	return func() {
		baseMu.Lock()
		base = prev
		baseMu.Unlock()
	}
}

// Sync flushes buffered entries.
func Sync() error {
	return root().Sync()
}

func root() *zap.Logger {
	baseMu.RLock()
	z := base
	baseMu.RUnlock()
	if z != nil {
		return z
	}

	baseMu.Lock()
	defer baseMu.Unlock()
	if base == nil {
		base = zap.New(zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), zapcore.InfoLevel))
	}
	return base
}

func build(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), level),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, cfg.Service+".log"),
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
		}
		cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.AddSync(file), level))
	}

	z := zap.New(zapcore.NewTee(cores...))
	if cfg.Service != "" {
		z = z.With(zap.String("service", cfg.Service))
	}
	return z, nil
}

func newEncoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.NameKey = "logger"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

// LoggerV2 is a named structured logger.
type LoggerV2 struct {
	name   string
	fields Fields
	z      *zap.Logger
}

// NewLoggerV2 returns a logger named after the component using it.
func NewLoggerV2(name string) *LoggerV2 {
	return &LoggerV2{name: name}
}

// NewLoggerFromZap binds a logger to a specific zap logger instead of the
// process-wide one.
func NewLoggerFromZap(name string, z *zap.Logger) *LoggerV2 {
	return &LoggerV2{name: name, z: z}
}

// WithFields returns a child logger that always attaches fields.
func (l *LoggerV2) WithFields(fields Fields) *LoggerV2 {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LoggerV2{name: l.name, fields: merged, z: l.z}
}

// WithContext attaches the request and user ids carried by ctx.
func (l *LoggerV2) WithContext(ctx context.Context) *LoggerV2 {
	fields := Fields{}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields["user_id"] = id
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.logger().Debug(msg, l.zapFields(fields)...)
}

func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.logger().Info(msg, l.zapFields(fields)...)
}

func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.logger().Warn(msg, l.zapFields(fields)...)
}

func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.logger().Error(msg, l.zapFields(fields)...)
}

// Fatal logs and exits the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.logger().Fatal(msg, l.zapFields(fields)...)
}

func (l *LoggerV2) logger() *zap.Logger {
	z := l.z
	if z == nil {
		z = root()
	}
	if l.name != "" {
		z = z.Named(l.name)
	}
	return z
}

func (l *LoggerV2) zapFields(extra []Fields) []zap.Field {
	all := make(Fields, len(l.fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for _, f := range extra {
		for k, v := range f {
			all[k] = v
		}
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, all[k]))
	}
	return out
}

// Info logs an unstructured message on the process-wide logger.
func Info(msg string, fields ...Fields) {
	NewLoggerV2("").Info(msg, fields...)
}

// Infof logs a formatted message on the process-wide logger.
func Infof(format string, args ...interface{}) {
	root().Sugar().Infof(format, args...)
}
