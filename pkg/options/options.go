package options

import (
	"log/slog"
	"time"
)

type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithClock replaces the time source used for TOTP challenges. Useful for
// tests that need a fixed 30-second window.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

func NewOptions(opts ...Option) *Options {
	oo := &Options{
		Logger: slog.Default(),
		Clock:  time.Now,
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
