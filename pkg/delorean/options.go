package delorean

import "io"

type options struct {
	keepGoing bool
	plain     bool
	out       io.Writer
}

// Option configures a Checker.
type Option func(*options)

// WithKeepGoing makes CheckDir collect every violation instead of halting on
// the first. The aggregate result is still an error.
func WithKeepGoing() Option {
	return func(o *options) {
		o.keepGoing = true
	}
}

// WithOutput streams per-file results and violation dumps to w.
// By default a Checker is quiet and only returns errors.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithStyling enables terminal styling on the output writer.
func WithStyling() Option {
	return func(o *options) {
		o.plain = false
	}
}

func defaultOptions() options {
	return options{
		plain: true,
		out:   io.Discard,
	}
}
