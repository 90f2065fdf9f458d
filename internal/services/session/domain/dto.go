// Package domain holds DTOs for session http and service contracts
package domain

// CreateInput configures a new typing session. The first test section is
// allocated in the same transaction so the client can start typing on one
// round trip
type CreateInput struct {
	QuestionCount int    `json:"question_count" validate:"required,min=1,max=50" example:"10"`
	Sentence      string `json:"sentence" validate:"required,min=1" example:"the quick brown fox jumps over the lazy dog"`
}

// SectionInput opens the next test section for a participant
type SectionInput struct {
	ParticipantID string `json:"participant_id" validate:"required,min=1" example:"jane_doe_20260901_120000"`
	Sentence      string `json:"sentence" validate:"required,min=1" example:"pack my box with five dozen liquor jugs"`
}
