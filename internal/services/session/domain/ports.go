package domain

import "context"

// ServicePort defines the service contract for sessions
type ServicePort interface {
	Create(ctx context.Context, userID string, in CreateInput) (NewSession, error)
	CreateSection(ctx context.Context, userID string, in SectionInput) (NewSection, error)
	Stats(ctx context.Context, userID, testSectionID string) (SectionStats, error)
	Participant(ctx context.Context, userID, participantID string) (Participant, error)
}
