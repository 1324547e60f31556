package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"user-management-api/internal/response"
)

// WriteError renders a gate failure, adding Retry-After for limit errors.
func WriteError(w http.ResponseWriter, err error) {
	var limitErr *LimitError
	if errors.As(err, &limitErr) && limitErr.RetryAfter > 0 {
		seconds := int(math.Ceil(limitErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	response.Error(w, err)
}
