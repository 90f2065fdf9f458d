package module

import (
	"context"

	sessiondom "keycap/internal/services/session/domain"
	sessionsvc "keycap/internal/services/session/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptSessionPort adapts the session service to the domain port interface
type adaptSessionPort struct{ svc sessionsvc.Service }

// Create implements the domain ServicePort interface
func (a adaptSessionPort) Create(ctx context.Context, userID string, in sessiondom.CreateInput) (sessiondom.NewSession, error) {
	return a.svc.Create(ctx, userID, in)
}

// CreateSection implements the domain ServicePort interface
func (a adaptSessionPort) CreateSection(ctx context.Context, userID string, in sessiondom.SectionInput) (sessiondom.NewSection, error) {
	return a.svc.CreateSection(ctx, userID, in)
}

// Stats implements the domain ServicePort interface
func (a adaptSessionPort) Stats(ctx context.Context, userID, testSectionID string) (sessiondom.SectionStats, error) {
	return a.svc.Stats(ctx, userID, testSectionID)
}

// Participant implements the domain ServicePort interface
func (a adaptSessionPort) Participant(ctx context.Context, userID, participantID string) (sessiondom.Participant, error) {
	return a.svc.Participant(ctx, userID, participantID)
}
