package log

import (
	"context"

	"github.com/rs/zerolog"
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// Ctx returns the logger carried by ctx, or the process logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return *l
		}
	}
	return L()
}

// WithConn tags the context logger with a realtime connection id.
func WithConn(ctx context.Context, connID string) context.Context {
	return with(ctx, FieldConnID, connID)
}

// WithProduct tags the context logger with a product id.
func WithProduct(ctx context.Context, productID int64) context.Context {
	l := Ctx(ctx).With().Int64(FieldProductID, productID).Logger()
	return l.WithContext(ctx)
}

func with(ctx context.Context, key, value string) context.Context {
	l := Ctx(ctx).With().Str(key, value).Logger()
	return l.WithContext(ctx)
}
