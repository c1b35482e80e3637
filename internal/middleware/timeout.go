package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-env-manager/internal/model"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout bounds handler run time. Expired requests get a 503 error envelope.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "request timed out after " + timeout.String(),
		},
	})

	return func(next http.Handler) http.Handler {
		timed := http.TimeoutHandler(next, timeout, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// TimeoutHandler writes its message without a content type.
			if w.Header().Get("Content-Type") == "" {
				w.Header().Set("Content-Type", "application/json")
			}
			timed.ServeHTTP(w, r)
		})
	}
}
