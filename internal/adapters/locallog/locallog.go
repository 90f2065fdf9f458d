// Package locallog is the append-only local record of truth.
//
// One folder per participant session (data/{participant_id}/{session_timestamp})
// holds keystrokes.csv with one row per finalized keystroke and sessions.csv
// with one summary row per completed section or session. Files are only ever
// appended to, never rewritten
package locallog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var keystrokeHeader = []string{
	"PARTICIPANT_ID",
	"TEST_SECTION_ID",
	"SENTENCE",
	"USER_INPUT",
	"KEYSTROKE_ID",
	"PRESS_TIME",
	"RELEASE_TIME",
	"LETTER",
	"KEYCODE",
	"SESSION_TIMESTAMP",
}

var sessionHeader = []string{
	"PARTICIPANT_ID",
	"TEST_SECTION_ID",
	"SENTENCE_COUNT",
	"TOTAL_KEYSTROKES",
	"AVERAGE_WPM",
	"SESSION_TIMESTAMP",
}

// KeystrokeRow is one physical record of the keystroke log
type KeystrokeRow struct {
	ParticipantID    string
	TestSectionID    string
	Sentence         string
	UserInput        string
	KeystrokeID      int
	PressTime        int64
	ReleaseTime      int64
	Letter           string
	Keycode          int
	SessionTimestamp string
}

// SessionRow is one summary record with section statistics
type SessionRow struct {
	ParticipantID    string
	TestSectionID    string
	SentenceCount    int
	TotalKeystrokes  int
	AverageWPM       int
	SessionTimestamp string
}

// Log appends keystroke and session rows under a data directory
type Log struct {
	dir string
	mu  sync.Mutex
}

// New builds a Log rooted at dir, creating it if missing
func New(dir string) *Log {
	_ = os.MkdirAll(dir, 0o755)
	return &Log{dir: dir}
}

// Dir returns the root data directory
func (l *Log) Dir() string { return l.dir }

// AppendKeystrokes appends one row per record to the participant's
// keystrokes.csv, creating the session folder and header on first write
func (l *Log) AppendKeystrokes(rows []KeystrokeRow) error {
	if len(rows) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	path, err := l.sessionFile(rows[0].ParticipantID, rows[0].SessionTimestamp, "keystrokes.csv", keystrokeHeader)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.ParticipantID,
			r.TestSectionID,
			r.Sentence,
			r.UserInput,
			strconv.Itoa(r.KeystrokeID),
			strconv.FormatInt(r.PressTime, 10),
			strconv.FormatInt(r.ReleaseTime, 10),
			r.Letter,
			strconv.Itoa(r.Keycode),
			r.SessionTimestamp,
		})
	}
	return appendCSV(path, records)
}

// AppendSession appends one summary row to the participant's sessions.csv
func (l *Log) AppendSession(row SessionRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, err := l.sessionFile(row.ParticipantID, row.SessionTimestamp, "sessions.csv", sessionHeader)
	if err != nil {
		return err
	}
	return appendCSV(path, [][]string{{
		row.ParticipantID,
		row.TestSectionID,
		strconv.Itoa(row.SentenceCount),
		strconv.Itoa(row.TotalKeystrokes),
		strconv.Itoa(row.AverageWPM),
		row.SessionTimestamp,
	}})
}

// sessionFile ensures the session folder and header row exist and
// returns the file path
func (l *Log) sessionFile(participantID, sessionTS, name string, header []string) (string, error) {
	folder := filepath.Join(l.dir, participantID, sessionTS)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(folder, name)
	fi, err := os.Stat(path)
	if err == nil && fi.Size() > 0 {
		return path, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if err := appendCSV(path, [][]string{header}); err != nil {
		return "", err
	}
	return path, nil
}

// appendCSV opens path append-only and writes the records
func appendCSV(path string, records [][]string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
