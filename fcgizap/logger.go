// Package fcgizap adapts a go.uber.org/zap logger to the fcgi.Logger
// interface, so a FastCGI server can emit structured log lines the way
// caddyserver/caddy does throughout its request path.
package fcgizap

import "go.uber.org/zap"

// Logger wraps a *zap.SugaredLogger to satisfy fcgi.Logger.
type Logger struct {
	s *zap.SugaredLogger
}

// New wraps an existing *zap.Logger.
func New(l *zap.Logger) *Logger {
	return &Logger{s: l.Sugar()}
}

// NewProduction builds a Logger backed by zap's production configuration
// (JSON encoding, info level and above), falling back to a no-op logger if
// zap itself fails to build one (which only happens on misconfiguration).
func NewProduction() *Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return New(l)
}

func (l *Logger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
