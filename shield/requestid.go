package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/docload/idgen"
	"github.com/hazyhaar/docload/kit"
)

// RequestID tags each request with an id, reusing an incoming X-Request-ID
// when present. The id is stored with kit.WithRequestID and kit.WithTraceID,
// echoed in the X-Request-ID response header, and bound to a per-request
// logger retrievable with GetLogger.
func RequestID(logger *slog.Logger, gen idgen.Generator) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 128 {
				id = gen()
			}

			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTraceID(ctx, id)
			ctx = kit.WithTransport(ctx, "http")
			w.Header().Set("X-Request-ID", id)

			reqLogger := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx = context.WithValue(ctx, LoggerKey, reqLogger)
			reqLogger.Debug("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
