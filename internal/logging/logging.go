// Package logging provides the leveled logger contract used across the
// synchronization runtime. Components never reach for a package-level
// logger; every constructor takes one explicitly.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the narrow logging contract every component depends on.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})

	// WithField returns a logger that annotates every subsequent line
	// with the given key/value, without mutating the receiver.
	WithField(key string, value interface{}) Logger
}

// logrusLogger is the default Logger, backed by logrus so that fields
// attach structurally instead of via ad-hoc Sprintf composition.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewDefault builds the default Logger, writing leveled, timestamped
// lines to stderr.
func NewDefault() Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// Noop discards everything. Useful for tests that don't care about log
// output but still need to satisfy the Logger contract.
type Noop struct{}

func (Noop) Infof(string, ...interface{})  {}
func (Noop) Warnf(string, ...interface{})  {}
func (Noop) Errorf(string, ...interface{}) {}
func (Noop) Debugf(string, ...interface{}) {}
func (n Noop) WithField(string, interface{}) Logger { return n }
