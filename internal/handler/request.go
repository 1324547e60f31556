package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"user-management-api/internal/auth"
	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON object body into dst. An empty body is a 422 and
// malformed JSON a 400.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apierror.New("BAD_REQUEST", i18n.T("invalid_json"), "", http.StatusBadRequest)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("{}")) {
		return apierror.New("VALIDATION_ERROR", i18n.T("empty_request_body"), "", http.StatusUnprocessableEntity)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return apierror.New("BAD_REQUEST", i18n.T("invalid_json"), err.Error(), http.StatusBadRequest)
	}
	return nil
}

// userIDParam parses the first path parameter; anything unusable is an unknown user.
func userIDParam(params []string) (int64, error) {
	if len(params) == 0 {
		return 0, model.ErrUserNotFound
	}

	id, err := strconv.ParseInt(params[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrUserNotFound
	}
	return id, nil
}

func identityFrom(r *http.Request) (model.Identity, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return model.Identity{}, apierror.New("SESSION_EXPIRED", i18n.T("session_expired"), "", 419)
	}
	return identity, nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 0
	}
	return page
}
