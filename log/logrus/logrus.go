// Package logrus adapts a *logrus.Entry to infracache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/infracache"
)

var _ infracache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every line with component=infracache.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: l.WithField("component", "infracache")}
}

func (l Logger) Debug(msg string, f infracache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f infracache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f infracache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f infracache.Fields) { l.with(f).Error(msg) }

// errors go under logrus.ErrorKey so formatters render them as errors
func (l Logger) with(f infracache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			lf[logrus.ErrorKey] = err
			continue
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
