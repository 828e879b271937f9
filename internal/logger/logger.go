package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var log = New(os.Stdout, logrus.InfoLevel)

// New builds a JSON logrus logger writing to out.
func New(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l
}

// Init resets the package logger to stdout at the given level name.
// Unknown names fall back to info.
func Init(levelName ...string) {
	level := logrus.InfoLevel
	if len(levelName) > 0 && levelName[0] != "" {
		if parsed, err := logrus.ParseLevel(levelName[0]); err == nil {
			level = parsed
		}
	}
	log = New(os.Stdout, level)
}

// SetOutput redirects the package logger, mostly for tests.
func SetOutput(out io.Writer) {
	log.SetOutput(out)
}

func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Writer exposes the logger as an io.Writer so gin can route its own output through it.
func Writer() *io.PipeWriter {
	return log.WithField("source", "gin").WriterLevel(logrus.InfoLevel)
}

func Info(msg string, kv ...interface{}) {
	entry(kv).Info(msg)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, kv ...interface{}) {
	entry(kv).Warn(msg)
}

func Warnf(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func Error(msg string, kv ...interface{}) {
	entry(kv).Error(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, kv ...interface{}) {
	entry(kv).Debug(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatal(msg string, kv ...interface{}) {
	entry(kv).Fatal(msg)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

func WithError(err error) *logrus.Entry {
	return log.WithError(err)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

// entry turns alternating key/value pairs into logrus fields. A dangling key
// is kept under "!BADKEY" so nothing passed in is silently dropped.
func entry(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return logrus.NewEntry(log)
	}
	fields := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			fields["!BADKEY"] = kv[i]
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if err, isErr := kv[i+1].(error); isErr {
			fields[key] = err.Error()
			continue
		}
		fields[key] = kv[i+1]
	}
	return log.WithFields(fields)
}
