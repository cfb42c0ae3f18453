package fcgi

import (
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for a Server. Zero values are replaced by
// DefaultConfig's defaults where that makes sense, mirroring the
// predecessor client library's Config/DefaultConfig() pattern.
type Config struct {
	// ReadTimeout is a single read deadline, measured from the moment a
	// connection is accepted, that covers every packet read on it; it is
	// not reset between packets (spec.md §4.D: "idle peers cannot pin a
	// worker forever").
	ReadTimeout time.Duration `yaml:"readTimeout"`

	// MaxWorkers bounds how many connections are served concurrently.
	// Zero means "use runtime.GOMAXPROCS(0)", the Go-idiomatic rendering
	// of spec.md's "size = hardware parallelism by default".
	MaxWorkers int `yaml:"maxWorkers"`

	// ShutdownTimeout is carried in the configuration but is not consulted:
	// Handle.Stop always waits for every in-flight connection to finish,
	// with no deadline.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns a Config with sensible defaults for most use
// cases: a 3 second read timeout (spec.md §4.D's "≈3s"), one worker per
// logical CPU, and no shutdown deadline.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:     3 * time.Second,
		MaxWorkers:      runtime.GOMAXPROCS(0),
		ShutdownTimeout: 0,
	}
}

// withDefaults fills zero-valued fields of c with DefaultConfig's values,
// returning a new Config (c itself is left untouched).
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.MaxWorkers == 0 {
		out.MaxWorkers = d.MaxWorkers
	}
	return &out
}

// LoadConfig reads a YAML-encoded Config from path, applying defaults to
// any field the file leaves at its zero value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap(ErrConfig, err, "reading config file")
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, wrap(ErrConfig, err, "parsing config file")
	}
	return c.withDefaults(), nil
}
