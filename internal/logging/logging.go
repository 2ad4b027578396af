package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var ctxKeyLogger ctxKey = struct{}{}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, l)
}

// WithNewsletter returns a context whose logger carries the newsletter id on
// every record. Fetch pipeline code passes this context down so storage and
// Gmail client logs can be correlated with the newsletter being refreshed.
func WithNewsletter(ctx context.Context, id int64) context.Context {
	return With(ctx, slog.Int64("newsletter_id", id))
}
