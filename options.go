package sparsego

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	parallelism int
}

func defaultOptions() options {
	return options{
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		parallelism: 1,
	}
}

// Option configures construction and derived-array behavior. Options
// attach to the constructed Array and are inherited by arrays derived
// from it (e.g. through subassignment).
type Option func(*options)

// WithLogger configures structured logging. The engine logs pass
// summaries at debug level only. If nil is passed, logging is disabled.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(metrics MetricsCollector) Option {
	return func(o *options) {
		if metrics == nil {
			metrics = NoopMetricsCollector{}
		}
		o.metrics = metrics
	}
}

// WithParallelism allows dense construction to build the sub-trees of
// the outermost dimension with up to n goroutines. The sub-trees are
// disjoint, so no shared state is mutated. The default of 1 keeps every
// operation fully sequential.
//
// Only NewFromDense uses the setting today; all other operations are
// single-threaded regardless.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}
