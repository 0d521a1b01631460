package log

import (
	"io"
	"os"

	"epubtokens/internal/errors"

	"github.com/sirupsen/logrus"
)

var logger = NewLogger()

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Level mirrors the logrus levels the application uses.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Logger is a thin structured logger over logrus.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	out   io.Writer
	file  string
	json  bool
	level logrus.Level
}

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithFile appends log lines to path in addition to the configured output.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithJSON switches to JSON formatted lines.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithLevel sets the minimum level written.
func WithLevel(level Level) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(string(level)); err == nil {
			o.level = lvl
		}
	}
}

// NewLogger creates a logger writing to stdout unless told otherwise.
func NewLogger(opts ...Option) *Logger {
	o := options{out: os.Stdout, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	base := logrus.New()
	base.SetLevel(o.level)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	}

	l := &Logger{}
	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			base.SetOutput(out)
			base.WithError(err).Warn("could not open log file, logging to output only")
		} else {
			l.file = f
			out = io.MultiWriter(out, f)
		}
	}
	base.SetOutput(out)
	l.entry = logrus.NewEntry(base)
	return l
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level Level) {
	if lvl, err := logrus.ParseLevel(string(level)); err == nil {
		l.entry.Logger.SetLevel(lvl)
	}
}

// With returns a logger that attaches fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), file: l.file}
}

// WithError attaches err and, for application errors, its kind, reason and path.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l.With(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error())}
	if kind := errors.KindOf(err); kind != errors.Unknown {
		fields = append(fields, F("error_kind", kind.String()))
	}
	if reason := errors.ReasonOf(err); reason != "" {
		fields = append(fields, F("reason", string(reason)))
	}
	var pathErr interface{ Path() string }
	if errors.As(err, &pathErr) && pathErr.Path() != "" {
		fields = append(fields, F("path", pathErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	return l.With(fields...)
}

// Log writes msg at level.
func (l *Logger) Log(level Level, msg string) {
	switch level {
	case DebugLevel:
		l.entry.Debug(msg)
	case WarnLevel:
		l.entry.Warn(msg)
	case ErrorLevel:
		l.entry.Error(msg)
	default:
		l.entry.Info(msg)
	}
}

func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	prev := logger
	logger = NewLogger(opts...)
	prev.Close()
}

// Default returns the package-level logger.
func Default() *Logger {
	return logger
}

// SetDebug toggles debug output on the package-level logger.
func SetDebug(debug bool) {
	if debug {
		logger.SetLevel(DebugLevel)
		return
	}
	logger.SetLevel(InfoLevel)
}

// LogWithFields returns the package-level logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the package-level logger with err attached.
func LogWithError(err error) *Logger {
	return logger.WithError(err)
}

// LogError logs err with msg at error level.
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}

func Info(args ...interface{})                  { logger.Info(args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Debug(args ...interface{})                 { logger.Debug(args...) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Warn(args ...interface{})                  { logger.Warn(args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
