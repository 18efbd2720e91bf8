package apngenc

import "go.uber.org/zap"

// defaultLogger is a no-op logger; most Encoders never produce a log line,
// since the only event this codec logs (an APNG palette mismatch) is already
// surfaced to the caller as a StateError.
var defaultLogger = zap.NewNop().Sugar()

func (e *Encoder) logf(msg string, kv ...interface{}) {
	if e.log == nil {
		defaultLogger.Warnw(msg, kv...)
		return
	}
	e.log.Warnw(msg, kv...)
}
