// Package domain holds DTOs for ingest http and service contracts
package domain

// BatchInput delivers a flushed batch of keystrokes for one section
type BatchInput struct {
	ParticipantID string      `json:"participant_id" validate:"required,min=1"`
	TestSectionID string      `json:"test_section_id" validate:"required,min=1"`
	Sentence      string      `json:"sentence"`
	UserInput     string      `json:"user_input"`
	Keystrokes    []Keystroke `json:"keystrokes" validate:"required,min=1"`
}

// SectionCompleteInput closes a section after its tail flush landed
type SectionCompleteInput struct {
	ParticipantID string `json:"participant_id" validate:"required,min=1"`
	TestSectionID string `json:"test_section_id" validate:"required,min=1"`
}

// EndInput finalizes a session. The average word rate comes from the
// client's metrics engine
type EndInput struct {
	ParticipantID string `json:"participant_id" validate:"required,min=1"`
	AverageWPM    int    `json:"average_wpm" validate:"min=0"`
}
