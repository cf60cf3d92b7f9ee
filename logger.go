package avro

// Logger is the minimal structured-logging surface the object container
// writer uses for block-flush diagnostics (set with WithWriterLogger; the
// reader does not log); it is satisfied directly by
// charm.land/log/v2's *log.Logger.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

type discardLogger struct{}

func (discardLogger) Debug(interface{}, ...interface{}) {}
func (discardLogger) Warn(interface{}, ...interface{})  {}
func (discardLogger) Error(interface{}, ...interface{}) {}

// NewDiscardLogger returns a Logger that drops everything, the default for
// callers that don't supply their own.
func NewDiscardLogger() Logger { return discardLogger{} }
