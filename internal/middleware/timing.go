package middleware

import (
	"context"
	"net/http"
	"time"
)

type timingKey struct{}

// Timing records the arrival time of each request in its context so
// handlers and downstream middleware can report elapsed time.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), timingKey{}, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestStartTime returns the arrival time stored in ctx. When the
// middleware did not run it falls back to now, yielding zero elapsed.
func GetRequestStartTime(ctx context.Context) time.Time {
	if start, ok := ctx.Value(timingKey{}).(time.Time); ok {
		return start
	}
	return time.Now()
}

// GetResponseTimeMs returns milliseconds elapsed since the request arrived.
func GetResponseTimeMs(ctx context.Context) int64 {
	return time.Since(GetRequestStartTime(ctx)).Milliseconds()
}
