package domain

import "context"

// ServicePort defines the service contract for ingestion
type ServicePort interface {
	Accept(ctx context.Context, userID string, in BatchInput) (BatchAck, error)
	CompleteSection(ctx context.Context, userID string, in SectionCompleteInput) (SectionAck, error)
	End(ctx context.Context, userID string, in EndInput) (SessionAck, error)
}
