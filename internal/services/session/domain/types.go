// Package domain defines core types and interfaces for typing sessions
package domain

import "time"

// Participant identifies one full run of a typing test.
// The id embeds the owner's email slug and the session timestamp so local
// log folders sort naturally per run
type Participant struct {
	ParticipantID    string        `json:"participant_id"`
	SessionTimestamp string        `json:"session_timestamp"`
	QuestionCount    int           `json:"question_count"`
	CreatedAt        time.Time     `json:"created_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	Sections         []TestSection `json:"sections"`
}

// TestSection is one prompt-typing attempt. Immutable after creation except
// for the accumulated keystroke count, which doubles as the id watermark
// for batches arriving against this section
type TestSection struct {
	TestSectionID  string `json:"test_section_id"`
	Sentence       string `json:"sentence"`
	Position       int    `json:"position"`
	KeystrokeCount int    `json:"keystroke_count"`
}

// SectionStats is the read view served per test section
type SectionStats struct {
	ParticipantID   string `json:"participant_id"`
	Sentence        string `json:"sentence,omitempty"`
	SentenceCount   int    `json:"sentence_count"`
	TotalKeystrokes int    `json:"total_keystrokes"`
	QuestionCount   int    `json:"question_count,omitempty"`
}

// NewSession is returned when a session is created
type NewSession struct {
	ParticipantID    string `json:"participant_id"`
	TestSectionID    string `json:"test_section_id"`
	Sentence         string `json:"sentence"`
	SessionTimestamp string `json:"session_timestamp"`
	QuestionCount    int    `json:"question_count"`
}

// NewSection is returned when a test section is created
type NewSection struct {
	TestSectionID string `json:"test_section_id"`
	Sentence      string `json:"sentence"`
	Position      int    `json:"position"`
}
