package portal

import (
	"github.com/goliatone/go-stationform/pkg/logging"
)

// Option configures a StationLoader or Dispatcher.
type Option func(*options)

type options struct {
	logger   logging.Logger
	metrics  *Metrics
	renderer MarkupRenderer
}

// MarkupRenderer turns citation text into citation box markup.
type MarkupRenderer interface {
	Render(text string) (string, error)
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRenderer overrides the citation box renderer.
func WithRenderer(r MarkupRenderer) Option {
	return func(o *options) {
		if r != nil {
			o.renderer = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.Noop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
