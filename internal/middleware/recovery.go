// file: internal/middleware/recovery.go
package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"skillforge/internal/contextutils"
	"skillforge/internal/response"
)

// Recovery converts handler panics into 500 responses instead of dropped
// connections.
func Recovery(builder *response.Builder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					contextutils.GetLogger(r.Context(), logger).Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					builder.InternalError(w, r, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
