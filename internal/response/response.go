// Package response writes the {status, message, data} JSON envelope shared by
// handlers, middleware gates and the router.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/pkg/apierror"
)

func JSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := i18n.T("server_error")
	var data any

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		message = apiErr.Message
		if len(apiErr.Fields) > 0 {
			data = apiErr.Fields
		}
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusBadRequest
		message = i18n.T("user_not_exist")
	} else {
		slog.Error("unhandled error", "error", err)
	}

	JSON(w, status, message, data)
}
