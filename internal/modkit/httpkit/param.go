package httpkit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Param returns a URL path parameter captured by the router, or ""
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }
