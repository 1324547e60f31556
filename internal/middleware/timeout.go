package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
)

func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Status:  http.StatusServiceUnavailable,
		Message: i18n.T("request_timeout"),
	})

	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, string(body))
		// TimeoutHandler writes its body straight to w, so the JSON type is set up front.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			limited.ServeHTTP(w, r)
		})
	}
}
