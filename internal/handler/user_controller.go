package handler

import (
	"net/http"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/internal/response"
	"user-management-api/internal/router"
	"user-management-api/internal/service"
)

// UserController holds the administrator actions on user accounts.
type UserController struct {
	users *service.UserService
}

func NewUserController(users *service.UserService) *UserController {
	return &UserController{users: users}
}

func (c *UserController) Actions() map[string]router.ActionFunc {
	return map[string]router.ActionFunc{
		"index":         c.Index,
		"changeRole":    c.ChangeRole,
		"activate":      c.Activate,
		"disable":       c.Disable,
		"resetPassword": c.ResetPassword,
	}
}

func (c *UserController) Index(w http.ResponseWriter, r *http.Request, _ []string) {
	page, err := c.users.List(r.Context(), pageParam(r))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, "", page)
}

func (c *UserController) ChangeRole(w http.ResponseWriter, r *http.Request, params []string) {
	userID, err := userIDParam(params)
	if err != nil {
		response.Error(w, err)
		return
	}

	var payload model.ChangeRoleRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.ChangeRole(r.Context(), userID, payload); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("role_updated"), nil)
}

func (c *UserController) Activate(w http.ResponseWriter, r *http.Request, params []string) {
	userID, err := userIDParam(params)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.Activate(r.Context(), userID); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("user_activated"), nil)
}

func (c *UserController) Disable(w http.ResponseWriter, r *http.Request, params []string) {
	userID, err := userIDParam(params)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.Disable(r.Context(), userID); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("user_disabled"), nil)
}

func (c *UserController) ResetPassword(w http.ResponseWriter, r *http.Request, params []string) {
	userID, err := userIDParam(params)
	if err != nil {
		response.Error(w, err)
		return
	}

	var payload model.ResetPasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.ResetPassword(r.Context(), userID, payload); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("password_changed"), nil)
}
