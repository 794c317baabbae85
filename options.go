package xmlcodec

import (
	"fmt"

	"github.com/rs/zerolog"
)

type Option func(e *Engine) error

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

func WithMetrics(collector MetricsCollector) Option {
	return func(e *Engine) error {
		if collector == nil {
			return fmt.Errorf("%w: nil metrics collector", ErrInvalidConfiguration)
		}
		e.metrics = collector
		return nil
	}
}

func WithObservability(hook ObservabilityHook) Option {
	return func(e *Engine) error {
		if hook == nil {
			return fmt.Errorf("%w: nil observability hook", ErrInvalidConfiguration)
		}
		e.hook = hook
		return nil
	}
}

// WithDefaultTag sets the root tag used for types without a registered
// tag when the caller supplies none.
func WithDefaultTag(tag string) Option {
	return func(e *Engine) error {
		e.defaultTag = tag
		return nil
	}
}

func WithIndent(spaces int) Option {
	return func(e *Engine) error {
		if spaces < 0 {
			return fmt.Errorf("%w: indent must not be negative, got %d", ErrInvalidConfiguration, spaces)
		}
		e.indent = spaces
		return nil
	}
}
