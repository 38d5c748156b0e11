package vfslog

import "github.com/sirupsen/logrus"

// logrusLogger adapts a *logrus.Logger (or *logrus.Entry) to Logger
// for structured, leveled, field-tagged logging.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus wraps l as a Logger.
func NewLogrus(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) withFields(f Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(f))
}

func (l *logrusLogger) Trace(msg string, f Fields)   { l.withFields(f).Trace(msg) }
func (l *logrusLogger) Debug(msg string, f Fields)   { l.withFields(f).Debug(msg) }
func (l *logrusLogger) Info(msg string, f Fields)    { l.withFields(f).Info(msg) }
func (l *logrusLogger) Warning(msg string, f Fields) { l.withFields(f).Warning(msg) }
func (l *logrusLogger) Error(msg string, f Fields)   { l.withFields(f).Error(msg) }
