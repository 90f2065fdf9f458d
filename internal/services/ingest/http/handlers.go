// Package http provides http transport for ingestion
package http

import (
	stdhttp "net/http"

	"keycap/internal/modkit/httpkit"
	"keycap/internal/services/ingest/domain"
	svc "keycap/internal/services/ingest/service"
)

// Register mounts capture endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.BatchInput](r, "/keystrokes", h.keystrokes)
	httpkit.PostJSON[domain.SectionCompleteInput](r, "/sentence-complete", h.sectionComplete)
	httpkit.PostJSON[domain.EndInput](r, "/end-test", h.end)
}

type handlers struct{ svc svc.Service }

// @Summary Ingest a flushed keystroke batch
// @Tags Capture
// @Accept json
// @Produce json
// @Param payload body domain.BatchInput true "Keystroke batch"
// @Success 200 {object} domain.BatchAck "ok"
// @Router /capture/keystrokes [post]
func (h *handlers) keystrokes(r *stdhttp.Request, in domain.BatchInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Accept(r.Context(), uid, in)
}

// @Summary Close a section and sync it to the analytical store
// @Tags Capture
// @Accept json
// @Produce json
// @Param payload body domain.SectionCompleteInput true "Completed section"
// @Success 200 {object} domain.SectionAck "ok"
// @Router /capture/sentence-complete [post]
func (h *handlers) sectionComplete(r *stdhttp.Request, in domain.SectionCompleteInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.CompleteSection(r.Context(), uid, in)
}

// @Summary Finalize a session
// @Tags Capture
// @Accept json
// @Produce json
// @Param payload body domain.EndInput true "Session end"
// @Success 200 {object} domain.SessionAck "ok"
// @Router /capture/end-test [post]
func (h *handlers) end(r *stdhttp.Request, in domain.EndInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.End(r.Context(), uid, in)
}
