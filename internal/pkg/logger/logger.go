package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a stdout logger. Production gets JSON lines, everything else
// gets coloured text.
func New(level, env string) Logger {
	var formatter logrus.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		ForceColors:     true,
	}
	if env == "production" {
		formatter = &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	}
	return build(level, formatter, os.Stdout)
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) Logger {
	return build(level, &logrus.JSONFormatter{TimestampFormat: timestampFormat}, w)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() Logger {
	return build("panic", &logrus.TextFormatter{}, io.Discard)
}

func build(level string, formatter logrus.Formatter, w io.Writer) Logger {
	l := logrus.New()
	l.SetFormatter(formatter)
	l.SetLevel(StringToLevel(level))
	l.SetOutput(w)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// StringToLevel parses a level name, falling back to info.
func StringToLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func (l *logrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}

// Component tags a logger with the component name used across the service.
func Component(log Logger, name string) Logger {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}

func SetLevel(log Logger, level string) error {
	l, ok := log.(*logrusLogger)
	if !ok {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.entry.Logger.SetLevel(parsed)
	return nil
}

func IsDebugEnabled(log Logger) bool {
	if l, ok := log.(*logrusLogger); ok {
		return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}
