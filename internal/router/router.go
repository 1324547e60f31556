// Package router maps (method, path pattern) pairs to actions and dispatches
// each request through the middleware pipeline.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"user-management-api/internal/i18n"
	"user-management-api/internal/middleware"
	"user-management-api/internal/response"
	"user-management-api/internal/util"
)

var (
	ErrUnsupportedMethod = errors.New("router: unsupported method")
	ErrInvalidAction     = errors.New("router: invalid action")
)

var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

var placeholder = regexp.MustCompile(`\{[^{}/]+\}`)

const paramPattern = `([a-zA-Z0-9_]+)`

// ActionFunc receives the sanitized path parameters in pattern order.
type ActionFunc func(w http.ResponseWriter, r *http.Request, params []string)

// Controller exposes its actions by method name for "Name@method" references.
type Controller interface {
	Actions() map[string]ActionFunc
}

// Action is either a plain function or a reference to a registered controller method.
type Action struct {
	fn         ActionFunc
	controller string
	method     string
}

func Func(fn ActionFunc) Action {
	return Action{fn: fn}
}

// Ref builds an action from a "Controller@method" string.
func Ref(ref string) Action {
	controller, method, _ := strings.Cut(ref, "@")
	return Action{controller: strings.TrimSpace(controller), method: strings.TrimSpace(method)}
}

func (a Action) String() string {
	if a.fn != nil {
		return "func"
	}
	return a.controller + "@" + a.method
}

type route struct {
	method  string
	pattern string
	matcher *regexp.Regexp
	action  Action
	kinds   []middleware.Kind
	roles   []string
}

type Router struct {
	pipeline    *middleware.Pipeline
	routes      map[string][]route
	controllers map[string]Controller
}

func New(pipeline *middleware.Pipeline) *Router {
	return &Router{
		pipeline:    pipeline,
		routes:      map[string][]route{},
		controllers: map[string]Controller{},
	}
}

func (rt *Router) Register(name string, controller Controller) {
	rt.controllers[name] = controller
}

// Add registers a route. Routes are matched in registration order.
func (rt *Router) Add(method string, pattern string, action Action, kinds []middleware.Kind, roles []string) error {
	method = strings.ToUpper(strings.TrimSpace(method))
	if _, ok := supportedMethods[method]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	if action.fn == nil && (action.controller == "" || action.method == "") {
		return fmt.Errorf("%w: %q for %s %s", ErrInvalidAction, action.String(), method, pattern)
	}

	for _, kind := range kinds {
		if !rt.pipeline.Supports(kind) {
			return fmt.Errorf("router: middleware %s unavailable for %s %s", kind, method, pattern)
		}
	}

	normalized := normalize(pattern)
	rt.routes[method] = append(rt.routes[method], route{
		method:  method,
		pattern: normalized,
		matcher: compile(normalized),
		action:  action,
		kinds:   kinds,
		roles:   roles,
	})
	return nil
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalize(r.URL.Path)

	routes := rt.routes[r.Method]
	if len(routes) == 0 {
		response.JSON(w, http.StatusMethodNotAllowed, i18n.Tf("method_not_allowed", r.Method), nil)
		return
	}

	matched, params := match(routes, path)
	if matched == nil {
		response.JSON(w, http.StatusNotFound, i18n.Tf("route_not_found", path), nil)
		return
	}

	r, err := rt.pipeline.Run(r, matched.kinds, matched.roles)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	fn, err := rt.resolve(matched.action)
	if err != nil {
		response.Error(w, err)
		return
	}

	slog.Debug("route dispatched", "method", r.Method, "pattern", matched.pattern, "action", matched.action.String())
	fn(w, r, util.SanitizeParams(params))
}

func (rt *Router) resolve(action Action) (ActionFunc, error) {
	if action.fn != nil {
		return action.fn, nil
	}

	controller, ok := rt.controllers[action.controller]
	if !ok {
		return nil, notFound(i18n.Tf("controller_not_found", action.controller))
	}

	fn, ok := controller.Actions()[action.method]
	if !ok || fn == nil {
		return nil, notFound(i18n.Tf("action_not_found", action.method, action.controller))
	}
	return fn, nil
}

// match prefers an exact pattern match over a placeholder match.
func match(routes []route, path string) (*route, []string) {
	for i := range routes {
		if routes[i].pattern == path {
			return &routes[i], nil
		}
	}

	for i := range routes {
		if routes[i].matcher == nil {
			continue
		}
		if groups := routes[i].matcher.FindStringSubmatch(path); groups != nil {
			return &routes[i], groups[1:]
		}
	}

	return nil, nil
}

func normalize(path string) string {
	return middleware.NormalizePath(path)
}

// compile returns nil for patterns without placeholders.
func compile(pattern string) *regexp.Regexp {
	locations := placeholder.FindAllStringIndex(pattern, -1)
	if len(locations) == 0 {
		return nil
	}

	var expr strings.Builder
	expr.WriteString("^")
	last := 0
	for _, loc := range locations {
		expr.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		expr.WriteString(paramPattern)
		last = loc[1]
	}
	expr.WriteString(regexp.QuoteMeta(pattern[last:]))
	expr.WriteString("$")

	return regexp.MustCompile(expr.String())
}
