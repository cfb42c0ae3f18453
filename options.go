package fcgi

// options collects the optional collaborators a Server can be started
// with: a Config, a Logger, and a Metrics sink. Each defaults to a
// harmless no-op when not supplied, so Start(addr, handler) alone is a
// complete, valid call.
type options struct {
	config  *Config
	log     Logger
	metrics *Metrics
}

// Option configures a Server at Start time, the same functional-options
// shape used throughout the wider ecosystem for optional collaborators
// that would otherwise bloat a single constructor signature.
type Option func(*options)

// WithConfig overrides the default Config (read timeout, worker count,
// shutdown timeout).
func WithConfig(c *Config) Option {
	return func(o *options) { o.config = c.withDefaults() }
}

// WithLogger installs a Logger; pass a *fcgizap.Logger to log through
// go.uber.org/zap.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics installs a Metrics sink built by NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) *options {
	o := &options{
		config: DefaultConfig(),
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
