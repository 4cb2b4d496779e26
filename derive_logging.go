package params

import "time"

// DeriveLogEvent describes one derivation hook evaluation for logging.
type DeriveLogEvent struct {
	Engine   string
	Expr     string
	Param    string
	Target   string
	Duration time.Duration
	Err      error
}

// DeriveLogger records derivation events.
type DeriveLogger interface {
	LogDerivation(DeriveLogEvent)
}

// DeriveLoggerFunc adapts a function to DeriveLogger.
type DeriveLoggerFunc func(DeriveLogEvent)

// LogDerivation implements DeriveLogger.
func (f DeriveLoggerFunc) LogDerivation(event DeriveLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopDeriveLogger struct{}

func (noopDeriveLogger) LogDerivation(DeriveLogEvent) {}

// WithDeriveLogger attaches a derivation logger to the binding.
func WithDeriveLogger(logger DeriveLogger) Option {
	return func(cfg *bindConfig) {
		if logger == nil {
			cfg.logger = noopDeriveLogger{}
			return
		}
		cfg.logger = logger
	}
}
