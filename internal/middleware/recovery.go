// File: internal/middleware/recovery.go
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"

	"go.uber.org/zap"
)

// Recovery converts panics into 500 responses instead of dropped
// connections. The stack is logged, never sent to the client.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, 8192)
					stack = stack[:runtime.Stack(stack, false)]

					reqLogger := GetLogger(r.Context())
					reqLogger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.ByteString("stack", stack),
					)

					writeMiddlewareError(w, r, http.StatusInternalServerError,
						"INTERNAL_ERROR", "an unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeMiddlewareError emits the standard error envelope from inside the
// middleware chain, where the response builder is not available.
func writeMiddlewareError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
		"request_id": GetRequestID(r.Context()),
	})
}
