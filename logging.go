package fcgi

// Logger is the minimal logging interface the protocol engine consumes
// (spec.md §1 names "logging backends" as an external collaborator). The
// core never depends on a concrete logging library; see fcgizap.New
// (or fcgizap.NewProduction) for a go.uber.org/zap-backed implementation.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// nopLogger discards everything. It is the default when a Server is
// constructed without an explicit Logger, so embedding applications that
// don't care about logs don't have to provide one.
type nopLogger struct{}

func (nopLogger) Debugw(string, ...any) {}
func (nopLogger) Infow(string, ...any)  {}
func (nopLogger) Warnw(string, ...any)  {}
func (nopLogger) Errorw(string, ...any) {}
