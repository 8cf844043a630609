package memberauth

import "context"

type correlationIDContextKey struct{}

// WithCorrelationID attaches a request correlation identifier to ctx. The
// API client forwards it to the backend as the X-Request-ID header and the
// audit dispatcher records it on emitted events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey{}, id)
}

// CorrelationIDFromContext returns the correlation identifier attached with
// WithCorrelationID, or the empty string.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(correlationIDContextKey{}).(string)
	return id
}
