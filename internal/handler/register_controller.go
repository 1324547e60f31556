package handler

import (
	"net/http"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/internal/response"
	"user-management-api/internal/router"
	"user-management-api/internal/service"
)

type RegisterController struct {
	users *service.UserService
}

func NewRegisterController(users *service.UserService) *RegisterController {
	return &RegisterController{users: users}
}

func (c *RegisterController) Actions() map[string]router.ActionFunc {
	return map[string]router.ActionFunc{
		"register": c.Register,
	}
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request, _ []string) {
	var payload model.RegisterRequest
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, err)
		return
	}

	user, err := c.users.Register(r.Context(), payload)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, i18n.T("user_registration_successful"), model.UserSummary{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		Approved: user.Approved,
	})
}
