// Package api composes the capture platform's HTTP surface
package api

import (
	"context"

	"keycap/internal/platform/config"
	"keycap/internal/platform/logger"
	phttp "keycap/internal/platform/net/http"
	"keycap/internal/platform/store"

	"keycap/internal/adapters/locallog"
	"keycap/internal/modkit"
	"keycap/internal/modkit/httpkit"
	"keycap/internal/modkit/module"
	"keycap/internal/modkit/swaggerkit"

	authmod "keycap/internal/services/auth/module"
	authrepo "keycap/internal/services/auth/repo"
	ingestmod "keycap/internal/services/ingest/module"
	ingestrepo "keycap/internal/services/ingest/repo"
	metamod "keycap/internal/services/meta/module"
	sessionmod "keycap/internal/services/session/module"
	sessionrepo "keycap/internal/services/session/repo"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	LocalLog       *locallog.Log
	EnableSwagger  bool
	EnableProfiler bool
}

// EnsureSchemas creates every table the API needs, in both stores.
// Safe to run on every boot
func EnsureSchemas(ctx context.Context, st *store.Store) error {
	if err := authrepo.EnsureSchema(ctx, st.PG); err != nil {
		return err
	}
	if err := sessionrepo.EnsureSchema(ctx, st.PG); err != nil {
		return err
	}
	return ingestrepo.EnsureTables(ctx, st.CH)
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	auth := authmod.New(deps, authmod.FromConfig(deps.Cfg))
	authSvc := module.MustPortsOf[authmod.Ports](auth).Service

	meta := metamod.New(deps)
	session := sessionmod.New(deps)
	ingest := ingestmod.New(deps, opt.LocalLog)

	// bearer tokens carry only the user id, there is no tenant scope
	authPort := httpkit.NewPortFunc(func(token string) (string, string, error) {
		uid, err := authSvc.ParseToken(token)
		return uid, "", err
	})

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range []module.Module{auth, meta, session, ingest} {
			module.Register(m.Name(), m.Ports())
		}

		// meta, register, and login stay public
		meta.MountRoutes(api)
		auth.MountRoutes(api)

		httpkit.Protected(api, authPort, func(pr httpkit.Router) {
			auth.MountProtected(pr)
			session.MountRoutes(pr)
			ingest.MountRoutes(pr)
		})
	})
}
