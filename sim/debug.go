package sim

import "github.com/sirupsen/logrus"

// Debugf logs a debug line prefixed with the current virtual time and the
// current process id. It may only be called from inside a handler.
func Debugf(format string, args ...any) {
	k, pid := mustCurrent()
	prefix := append([]any{uint64(k.clock), int(pid)}, args...)
	logrus.Debugf("[t=%d p=%d] "+format, prefix...)
}
