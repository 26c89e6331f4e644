// Package log provides the per-component leveled logger used across the service.
// Each component gets its own coloured name prefix so interleaved output stays readable.
package log

import (
	"errors"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const colorReset = "\033[0m"

var ErrNilWriter = errors.New("log writer must not be nil")

type options struct {
	level zapcore.Level
}

// Option configures a Logger.
type Option func(*options) error

// WithLevel sets the minimum level written (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(o *options) error {
		l, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		o.level = l
		return nil
	}
}

// Logger writes console-formatted lines through zap.
type Logger struct {
	z *zap.Logger
}

// New creates a logger whose lines are tagged with prefix painted in color.
func New(prefix, color string, out io.Writer, opts ...Option) (*Logger, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	o := &options{level: zapcore.InfoLevel}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = zapcore.OmitKey
	encCfg.StacktraceKey = zapcore.OmitKey

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), o.level)
	name := prefix
	if color != "" {
		name = color + prefix + colorReset
	}

	return &Logger{z: zap.New(core).Named(name)}, nil
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) { l.z.Debug(msg) }

// Info logs at info level.
func (l *Logger) Info(msg string) { l.z.Info(msg) }

// Warning logs at warn level.
func (l *Logger) Warning(msg string) { l.z.Warn(msg) }

// Error logs at error level.
func (l *Logger) Error(msg string) { l.z.Error(msg) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Nop returns a logger that discards everything; handy in tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}
