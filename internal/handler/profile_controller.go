package handler

import (
	"net/http"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/internal/response"
	"user-management-api/internal/router"
	"user-management-api/internal/service"
)

// ProfileController lets an authenticated user manage their own account.
type ProfileController struct {
	users *service.UserService
}

func NewProfileController(users *service.UserService) *ProfileController {
	return &ProfileController{users: users}
}

func (c *ProfileController) Actions() map[string]router.ActionFunc {
	return map[string]router.ActionFunc{
		"update":         c.Update,
		"changePassword": c.ChangePassword,
	}
}

func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request, _ []string) {
	identity, err := identityFrom(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var payload model.ProfileUpdateRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.UpdateProfile(r.Context(), identity, payload); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("profile_updated"), nil)
}

func (c *ProfileController) ChangePassword(w http.ResponseWriter, r *http.Request, _ []string) {
	identity, err := identityFrom(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.ChangePassword(r.Context(), identity, payload); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("password_changed"), nil)
}
