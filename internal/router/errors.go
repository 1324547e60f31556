package router

import (
	"net/http"

	"user-management-api/pkg/apierror"
)

func notFound(message string) *apierror.APIError {
	return apierror.New("NOT_FOUND", message, "", http.StatusNotFound)
}
