package handler

import (
	"net/http"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/internal/response"
	"user-management-api/internal/router"
	"user-management-api/internal/service"
)

type AuthController struct {
	users *service.UserService
}

func NewAuthController(users *service.UserService) *AuthController {
	return &AuthController{users: users}
}

func (c *AuthController) Actions() map[string]router.ActionFunc {
	return map[string]router.ActionFunc{
		"login":  c.Login,
		"logout": c.Logout,
	}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request, _ []string) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	token, err := c.users.Login(r.Context(), payload)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("login_successful"), model.TokenData{Token: token})
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request, _ []string) {
	identity, err := identityFrom(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := c.users.Logout(r.Context(), identity); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("logged_out"), nil)
}
