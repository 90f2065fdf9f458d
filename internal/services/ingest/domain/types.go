// Package domain defines core types and interfaces for keystroke ingestion
package domain

// Keystroke is one resolved press/release pair as captured on the client.
// Ids are section scoped and assigned in release order
type Keystroke struct {
	KeystrokeID int    `json:"keystroke_id"`
	PressTime   int64  `json:"press_time"`
	ReleaseTime int64  `json:"release_time"`
	Letter      string `json:"letter"`
	Keycode     int    `json:"keycode"`
}

// BatchAck reports how a batch landed. NextKeystrokeID is the section's
// running count after the append, which the client can use as a watermark
type BatchAck struct {
	Accepted        int `json:"accepted"`
	NextKeystrokeID int `json:"next_keystroke_id"`
}

// SectionAck reports a completed section. RemoteSynced is false when the
// analytical store was unreachable; the local log still has every row
type SectionAck struct {
	Keystrokes   int  `json:"keystrokes"`
	RemoteSynced bool `json:"remote_synced"`
}

// SessionAck reports a finished session
type SessionAck struct {
	SentenceCount   int  `json:"sentence_count"`
	TotalKeystrokes int  `json:"total_keystrokes"`
	AverageWPM      int  `json:"average_wpm"`
	RemoteSynced    bool `json:"remote_synced"`
}
