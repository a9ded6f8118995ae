package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var (
	logger   *logrus.Logger
	loggerMu sync.RWMutex
	fileHook *FileHook
)

// TimestampFormat is the layout of the @timestamp field.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// NewLogger builds a JSON logger with the SDK's field layout.
func NewLogger(cfg *Config) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: TimestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "@timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l
}

// InitLogger replaces the package logger. Calling it again swaps the
// logger and closes any previous file hook.
func InitLogger(cfg *Config) error {
	l := NewLogger(cfg)

	var hook *FileHook
	if cfg.LogsFilePath != "" {
		var err error
		hook, err = NewFileHook(cfg.LogsFilePath)
		if err != nil {
			return err
		}
		l.AddHook(hook)
	}

	loggerMu.Lock()
	prev := fileHook
	logger, fileHook = l, hook
	loggerMu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// FileHook mirrors log entries to a JSON lines file.
type FileHook struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileHook opens (or creates) filePath for appending.
func NewFileHook(filePath string) (*FileHook, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileHook{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Levels returns the log levels this hook is interested in
func (f *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire is called when a log event is fired
func (f *FileHook) Fire(entry *logrus.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := make(map[string]any, len(entry.Data)+3)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["@timestamp"] = entry.Time.Format(TimestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	return f.encoder.Encode(data)
}

// Close closes the file
func (f *FileHook) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// L returns the package logger, or the logrus standard logger if
// InitLogger was never called.
func L() *logrus.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

// WithContext adds trace information to the logger
func WithContext(ctx context.Context) *logrus.Entry {
	return EntryWithContext(L(), ctx)
}

// EntryWithContext attaches ctx and its span identifiers to l.
func EntryWithContext(l logrus.FieldLogger, ctx context.Context) *logrus.Entry {
	entry := l.WithFields(logrus.Fields{}).WithContext(ctx)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace.id": span.SpanContext().TraceID().String(),
			"span.id":  span.SpanContext().SpanID().String(),
		})
	}
	return entry
}

// WithFields adds fields to the logger
func WithFields(fields logrus.Fields) *logrus.Entry {
	return L().WithFields(fields)
}

// WithError adds an error to the logger
func WithError(err error) *logrus.Entry {
	return L().WithError(err)
}

// CloseLogger closes any open resources
func CloseLogger() error {
	loggerMu.Lock()
	hook := fileHook
	fileHook = nil
	loggerMu.Unlock()

	if hook != nil {
		return hook.Close()
	}
	return nil
}
