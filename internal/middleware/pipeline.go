package middleware

import (
	"fmt"
	"net/http"
)

// Gate inspects a request before its action runs. It may return an enriched
// request (for example with an identity attached) or an error that ends dispatch.
type Gate interface {
	Handle(r *http.Request) (*http.Request, error)
}

type GateFunc func(r *http.Request) (*http.Request, error)

func (f GateFunc) Handle(r *http.Request) (*http.Request, error) {
	return f(r)
}

// Kind names a route-level gate a route can declare.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindRole
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRole:
		return "role"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pipeline runs the global gates, then the route's declared gates in
// declaration order, then the special gates. The first failure stops it.
type Pipeline struct {
	global  []Gate
	auth    Gate
	special []Gate
}

func NewPipeline(global []Gate, auth Gate, special []Gate) *Pipeline {
	return &Pipeline{global: global, auth: auth, special: special}
}

func (p *Pipeline) Supports(kind Kind) bool {
	switch kind {
	case KindAuth:
		return p.auth != nil
	case KindRole:
		return true
	default:
		return false
	}
}

func (p *Pipeline) Run(r *http.Request, kinds []Kind, roles []string) (*http.Request, error) {
	var err error

	for _, gate := range p.global {
		if r, err = gate.Handle(r); err != nil {
			return nil, err
		}
	}

	for _, kind := range kinds {
		gate, err := p.routeGate(kind, roles)
		if err != nil {
			return nil, err
		}
		if r, err = gate.Handle(r); err != nil {
			return nil, err
		}
	}

	for _, gate := range p.special {
		if r, err = gate.Handle(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (p *Pipeline) routeGate(kind Kind, roles []string) (Gate, error) {
	switch kind {
	case KindAuth:
		if p.auth != nil {
			return p.auth, nil
		}
	case KindRole:
		return NewRoleGate(roles), nil
	}
	return nil, fmt.Errorf("middleware %s is not configured", kind)
}
