package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const correlationKey contextKey = "correlation_id"

// HeaderCorrelationID carries the request's correlation ID. The mobile
// clients never send one, so most requests get a fresh ID minted here.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationID tags every request with a correlation ID and echoes it on
// the response so a notification can be traced from HTTP call to provider.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderCorrelationID)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(HeaderCorrelationID, id)

		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
	})
}

// WithCorrelationID returns a context carrying the correlation ID
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// GetCorrelationID extracts the correlation ID from the context, or ""
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}
