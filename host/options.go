package host

import (
	"io"

	"go.uber.org/zap"
)

// DefaultMaxRequestSize bounds the source a Client stages in one call.
const DefaultMaxRequestSize = 16 * 1024 * 1024

type options struct {
	logger              *zap.Logger
	stderr              io.Writer
	maxRequestSize      int
	maxTotalAllocations int
}

func defaultOptions() options {
	return options{
		logger:         zap.NewNop(),
		maxRequestSize: DefaultMaxRequestSize,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures an Executor, a LocalGuest or a Client. Options that
// do not apply to the receiving type are ignored.
type Option func(*options)

// WithLogger sets the logger. Guest log records are forwarded to it.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStderr sends the guest's raw stderr to w instead of decoding it
// into log records.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}

// WithMaxRequestSize limits how many source bytes a Client stages.
// Values <= 0 are ignored.
func WithMaxRequestSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequestSize = n
		}
	}
}

// WithMaxTotalAllocations limits the arena of a LocalGuest.
func WithMaxTotalAllocations(n int) Option {
	return func(o *options) {
		o.maxTotalAllocations = n
	}
}
