package glyphraster

import "log/slog"

// Option configures a FontContext during creation.
//
// Example:
//
//	// Registry default (outline unless built with glyphraster_scaler)
//	ctx, err := glyphraster.NewFontContext()
//
//	// Explicit backend by name
//	ctx, err := glyphraster.NewFontContext(glyphraster.WithBackend(glyphraster.BackendScaler))
type Option func(*options)

type options struct {
	backendName string
	backend     Backend
	logger      *slog.Logger
}

// WithBackend selects a registered backend by name.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithBackendInstance injects a backend value directly, bypassing the
// registry. The backend must not be shared with another context.
func WithBackendInstance(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger overrides the package logger for one context.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
