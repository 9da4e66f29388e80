package domain

import "context"

// RequestMeta is the request-scoped metadata captured alongside a submission.
// The HTTP layer places it in the context; the persistence gateway reads it at
// save time. Every field is optional.
type RequestMeta struct {
	SenderIP   string
	UserAgent  string
	RefererURL string
}

type metaKey struct{}

// WithRequestMeta returns a context carrying m.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// RequestMetaFrom extracts the request metadata, zero-valued when absent.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey{}).(RequestMeta)
	return m
}
