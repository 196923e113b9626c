// Package rtlog provides the structured logger every Runtime attaches to
// its GC and VMs. It is a thin wrapper over logrus; the wrapper exists
// only to give the runtime a stable field name ("runtime", set by
// ForRuntime) instead of scattering string literals across gc.go/vm.go.
package rtlog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the subset of logrus' API this runtime relies on, so hosts can
// substitute a logrus.Entry, a *logrus.Logger, or their own shim.
type Logger interface {
	WithField(key string, value interface{}) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Discard returns a logger that drops everything, the default for a
// Runtime whose RuntimeConfig did not supply one.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ForRuntime tags every subsequent log line from this runtime with its id,
// so a host running several runtimes in one process can tell them apart.
func ForRuntime(base Logger, runtimeID string) *logrus.Entry {
	return base.WithField("runtime", runtimeID)
}
