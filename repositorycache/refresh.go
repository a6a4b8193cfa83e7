package repositorycache

import "context"

type refreshContextKey struct{}

// WithRefresh marks ctx so that cached reads skip the lookup, load from the store and
// overwrite the cached entry.
func WithRefresh(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, refreshContextKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(refreshContextKey{}).(bool)
	return v
}
