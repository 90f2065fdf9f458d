// Package http provides http transport for sessions
package http

import (
	stdhttp "net/http"

	"keycap/internal/modkit/httpkit"
	"keycap/internal/services/session/domain"
	svc "keycap/internal/services/session/service"
)

// Register mounts session endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)
	httpkit.PostJSON[domain.SectionInput](r, "/section", h.createSection)
	httpkit.Get(r, "/{test_section_id}/stats", h.stats)
	httpkit.Get(r, "/participant/{participant_id}", h.participant)
}

type handlers struct{ svc svc.Service }

// @Summary Start a typing session
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body domain.CreateInput true "Session config"
// @Success 200 {object} domain.NewSession "ok"
// @Router /session [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Create(r.Context(), uid, in)
}

// @Summary Open the next test section
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body domain.SectionInput true "Section prompt"
// @Success 200 {object} domain.NewSection "ok"
// @Router /session/section [post]
func (h *handlers) createSection(r *stdhttp.Request, in domain.SectionInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateSection(r.Context(), uid, in)
}

// @Summary Aggregate stats for the participant owning a test section
// @Tags Session
// @Produce json
// @Param test_section_id path string true "Test section id"
// @Success 200 {object} domain.SectionStats "ok"
// @Router /session/{test_section_id}/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Stats(r.Context(), uid, httpkit.Param(r, "test_section_id"))
}

// @Summary One participant run with its sections in prompt order
// @Tags Session
// @Produce json
// @Param participant_id path string true "Participant id"
// @Success 200 {object} domain.Participant "ok"
// @Router /session/participant/{participant_id} [get]
func (h *handlers) participant(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Participant(r.Context(), uid, httpkit.Param(r, "participant_id"))
}
