package wire

import "context"

type traceparentKey struct{}

// WithTraceparent attaches a W3C traceparent header value to ctx; a
// request issued with this context carries it on the outgoing Envelope.
func WithTraceparent(ctx context.Context, traceparent string) context.Context {
	if traceparent == "" {
		return ctx
	}
	return context.WithValue(ctx, traceparentKey{}, traceparent)
}

// TraceparentFromContext returns the traceparent ctx carries, if any.
func TraceparentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(traceparentKey{}).(string)
	return v
}
