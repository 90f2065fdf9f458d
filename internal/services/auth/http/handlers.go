// Package http provides http transport for auth
package http

import (
	stdhttp "net/http"

	"keycap/internal/modkit/httpkit"
	"keycap/internal/services/auth/domain"
	svc "keycap/internal/services/auth/service"
)

// Register mounts the public auth endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.RegisterInput](r, "/register", h.register)
	httpkit.PostJSON[domain.LoginInput](r, "/login", h.login)
}

// RegisterProtected mounts endpoints that need a bearer token
func RegisterProtected(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/me", h.me)
}

type handlers struct{ svc svc.Service }

// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body domain.RegisterInput true "Credentials"
// @Success 200 {object} domain.Token "ok"
// @Router /auth/register [post]
func (h *handlers) register(r *stdhttp.Request, in domain.RegisterInput) (any, error) {
	return h.svc.Register(r.Context(), in)
}

// @Summary Exchange credentials for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body domain.LoginInput true "Credentials"
// @Success 200 {object} domain.Token "ok"
// @Router /auth/login [post]
func (h *handlers) login(r *stdhttp.Request, in domain.LoginInput) (any, error) {
	return h.svc.Login(r.Context(), in)
}

// @Summary Account behind the presented token
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.User "ok"
// @Router /auth/me [get]
func (h *handlers) me(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Me(r.Context(), uid)
}
