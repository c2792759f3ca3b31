// Package zap adapts a *zap.Logger to infracache.Logger.
package zap

import (
	"sort"

	"github.com/unkn0wn-root/infracache"
	"go.uber.org/zap"
)

var _ infracache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "infracache"; nil falls back to zap.NewNop.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("infracache")}
}

func (z Logger) Debug(msg string, f infracache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f infracache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f infracache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f infracache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f infracache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
