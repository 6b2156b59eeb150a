package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl         zerolog.Logger
	component  string
	fileOutput *os.File
}

type Config struct {
	Level      string
	Format     string
	OutputFile string
	Component  string
	// Output replaces stdout when set.
	Output io.Writer
}

var (
	defaultLogger *Logger
	mu            sync.Mutex
)

// Init installs the package-level logger used by WithComponent and friends.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return nil
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func New(cfg Config) (*Logger, error) {
	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
			NoColor:    cfg.Output != nil,
		}
	}

	l := &Logger{component: cfg.Component}

	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.fileOutput = f
		// the file always gets JSON lines
		out = zerolog.MultiLevelWriter(out, f)
	}

	l.zl = zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()

	return l, nil
}

func Default() *Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger, _ = New(Config{
			Level:  "info",
			Format: "text",
		})
	}
	return defaultLogger
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zl:         l.zl,
		component:  component,
		fileOutput: l.fileOutput,
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		zl:         l.zl.With().Fields(fields).Logger(),
		component:  l.component,
		fileOutput: l.fileOutput,
	}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) emit(e *zerolog.Event, msg string, args []interface{}) {
	if l.component != "" {
		e = e.Str("component", l.component)
	}
	if len(args) > 0 {
		e.Msgf(msg, args...)
		return
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.emit(l.zl.Debug(), msg, args)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.emit(l.zl.Info(), msg, args)
}

// Success logs at info level with success=true, for milestones worth
// picking out of a long run.
func (l *Logger) Success(msg string, args ...interface{}) {
	l.emit(l.zl.Info().Bool("success", true), msg, args)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.emit(l.zl.Warn(), msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.emit(l.zl.Error(), msg, args)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.emit(l.zl.Fatal(), msg, args)
}

func (l *Logger) Close() error {
	if l.fileOutput != nil {
		return l.fileOutput.Close()
	}
	return nil
}

func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{}) { Default().Info(msg, args...) }
func Success(msg string, args ...interface{}) { Default().Success(msg, args...) }
func Warn(msg string, args ...interface{}) { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }
func Fatal(msg string, args ...interface{}) { Default().Fatal(msg, args...) }

func WithComponent(component string) *Logger { return Default().WithComponent(component) }
func WithFields(fields map[string]interface{}) *Logger { return Default().WithFields(fields) }
func WithField(key string, value interface{}) *Logger { return Default().WithField(key, value) }
