// Package logctx attaches a *log.Logger to a context.Context so diagnostic logging can be configured
// ambiently, without threading a logger parameter through every call.
package logctx

import (
	"context"
	"log"
)

type key struct{}

// WithLogger returns a copy of ctx with logger attached, retrievable by FromContext.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// FromContext returns the *log.Logger previously attached with WithLogger, or nil if none was attached.
func FromContext(ctx context.Context) *log.Logger {
	logger, _ := ctx.Value(key{}).(*log.Logger)
	return logger
}
