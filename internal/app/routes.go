package app

import (
	"fmt"
	"net/http"

	"user-management-api/internal/middleware"
	"user-management-api/internal/model"
	"user-management-api/internal/router"
)

type routeDef struct {
	method string
	path   string
	action string
	kinds  []middleware.Kind
	roles  []string
}

var (
	authOnly  = []middleware.Kind{middleware.KindAuth}
	authRole  = []middleware.Kind{middleware.KindAuth, middleware.KindRole}
	adminOnly = []string{model.RoleAdmin}
)

var routes = []routeDef{
	{http.MethodPost, "register", "RegisterController@register", nil, nil},
	{http.MethodPost, "login", "AuthController@login", nil, nil},
	{http.MethodPost, "logout", "AuthController@logout", authOnly, nil},

	{http.MethodGet, "users", "UserController@index", authRole, adminOnly},
	{http.MethodPut, "users/role/{user_id}", "UserController@changeRole", authRole, adminOnly},
	{http.MethodPost, "users/activate/{user_id}", "UserController@activate", authRole, adminOnly},
	{http.MethodPost, "users/disable/{user_id}", "UserController@disable", authRole, adminOnly},
	{http.MethodPost, "users/reset/{user_id}", "UserController@resetPassword", authRole, adminOnly},

	{http.MethodPut, "profile/update", "ProfileController@update", authOnly, nil},
	{http.MethodPut, "profile/password", "ProfileController@changePassword", authOnly, nil},
}

func registerRoutes(rt *router.Router) error {
	for _, def := range routes {
		if err := rt.Add(def.method, def.path, router.Ref(def.action), def.kinds, def.roles); err != nil {
			return fmt.Errorf("register %s %s: %w", def.method, def.path, err)
		}
	}
	return nil
}
