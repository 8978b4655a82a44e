package input

import "context"

type runIDKey struct{}

// WithRunID pins the ID a run started with ctx will use, so callers can
// expose it before the run begins.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}
