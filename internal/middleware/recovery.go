package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"user-management-api/internal/i18n"
	"user-management-api/internal/response"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				slog.Error("panic recovered",
					"error", fmt.Sprintf("%v", recovered),
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				response.JSON(w, http.StatusInternalServerError, i18n.T("server_error"), nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
