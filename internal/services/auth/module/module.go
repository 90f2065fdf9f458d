// Package module wires auth into the API using modkit
package module

import (
	"net/http"

	modkit "keycap/internal/modkit"
	"keycap/internal/modkit/httpkit"
	str "keycap/internal/platform/strings"
	authhttp "keycap/internal/services/auth/http"
	authrepo "keycap/internal/services/auth/repo"
	authsvc "keycap/internal/services/auth/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc authsvc.Service
}

// New constructs an auth module with the provided dependencies and options
func New(deps modkit.Deps, cfg authsvc.Config, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("auth"), modkit.WithPrefix("/auth")}, opts...)...)

	repo := authrepo.NewPG()
	svc := authsvc.New(deps.PG, repo, cfg)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Service: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		authhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the public register and login endpoints. The
// token-guarded routes are grouped separately via MountProtected so the
// composition root decides where the auth boundary sits
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// MountProtected mounts the endpoints that require a bearer token
func (m *Module) MountProtected(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		authhttp.RegisterProtected(rr, m.svc)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
