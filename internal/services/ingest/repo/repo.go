// Package repo provides hybrid storage access for ingestion
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"

	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
	"keycap/internal/platform/store"
)

// Repo defines the repository contract for ingestion.
// Postgres coordinates identities and counters, ClickHouse carries the
// analytical copies
type Repo interface {
	Section(ctx context.Context, testSectionID string) (RowSection, error)
	AddKeystrokes(ctx context.Context, testSectionID string, n int) (total int, err error)
	SessionAggregates(ctx context.Context, participantID string) (RowAggregates, error)
	MarkEnded(ctx context.Context, participantID string) error

	ReplaceKeystrokes(ctx context.Context, participantID, testSectionID string, rows []RowKeystroke) error
	ReplaceSession(ctx context.Context, row RowSessionSummary) error
}

// RowSection is a test section joined to its participant
type RowSection struct {
	TestSectionID    string
	ParticipantID    string
	UserID           string
	Sentence         string
	Position         int
	KeystrokeCount   int
	SessionTimestamp string
}

// RowAggregates is the per participant rollup used for session summaries
type RowAggregates struct {
	ParticipantID    string
	UserID           string
	SessionTimestamp string
	LastSectionID    string
	SentenceCount    int
	TotalKeystrokes  int
}

// RowKeystroke mirrors one analytical keystroke record
type RowKeystroke struct {
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

// RowSessionSummary mirrors one analytical session record
type RowSessionSummary struct {
	ParticipantID    string
	TestSectionID    string
	SentenceCount    int
	TotalKeystrokes  int
	AverageWPM       int
	SessionTimestamp string
}

// NewHybrid returns a binder that uses
// - Postgres for identities, ownership, and counters
// - ClickHouse for the remote analytical copies
func NewHybrid(ch store.Clickhouse) repokit.Binder[Repo] {
	return &hybridBinder{ch: ch}
}

type hybridBinder struct{ ch store.Clickhouse }

func (b *hybridBinder) Bind(q repokit.Queryer) Repo {
	return &hybridStore{pg: q, ch: b.ch}
}

type hybridStore struct {
	pg repokit.Queryer
	ch store.Clickhouse
}

func (s *hybridStore) Section(ctx context.Context, testSectionID string) (RowSection, error) {
	const sql = `
SELECT s.test_section_id, s.participant_id, p.user_id::text, s.sentence, s.position,
	s.keystroke_count, p.session_timestamp
FROM test_sections s
JOIN participants p ON p.participant_id = s.participant_id
WHERE s.test_section_id = $1`
	var row RowSection
	err := s.pg.QueryRow(ctx, sql, testSectionID).Scan(
		&row.TestSectionID,
		&row.ParticipantID,
		&row.UserID,
		&row.Sentence,
		&row.Position,
		&row.KeystrokeCount,
		&row.SessionTimestamp,
	)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowSection{}, perr.NotFoundf("test section %s", testSectionID)
		}
		return RowSection{}, err
	}
	return row, nil
}

func (s *hybridStore) AddKeystrokes(ctx context.Context, testSectionID string, n int) (int, error) {
	const sql = `
UPDATE test_sections
SET keystroke_count = keystroke_count + $2
WHERE test_section_id = $1
RETURNING keystroke_count`
	var total int
	if err := s.pg.QueryRow(ctx, sql, testSectionID, n).Scan(&total); err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return 0, perr.NotFoundf("test section %s", testSectionID)
		}
		return 0, err
	}
	return total, nil
}

func (s *hybridStore) SessionAggregates(ctx context.Context, participantID string) (RowAggregates, error) {
	const sql = `
SELECT p.participant_id, p.user_id::text, p.session_timestamp,
	COALESCE((SELECT t.test_section_id FROM test_sections t
		WHERE t.participant_id = p.participant_id ORDER BY t.position DESC LIMIT 1), ''),
	(SELECT COUNT(*) FROM test_sections t WHERE t.participant_id = p.participant_id),
	(SELECT COALESCE(SUM(t.keystroke_count), 0) FROM test_sections t WHERE t.participant_id = p.participant_id)
FROM participants p
WHERE p.participant_id = $1`
	var row RowAggregates
	err := s.pg.QueryRow(ctx, sql, participantID).Scan(
		&row.ParticipantID,
		&row.UserID,
		&row.SessionTimestamp,
		&row.LastSectionID,
		&row.SentenceCount,
		&row.TotalKeystrokes,
	)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowAggregates{}, perr.NotFoundf("participant %s", participantID)
		}
		return RowAggregates{}, err
	}
	return row, nil
}

func (s *hybridStore) MarkEnded(ctx context.Context, participantID string) error {
	const sql = `
UPDATE participants
SET ended_at = COALESCE(ended_at, now())
WHERE participant_id = $1`
	res, err := s.pg.Exec(ctx, sql, participantID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return perr.NotFoundf("participant %s", participantID)
	}
	return nil
}

var keystrokeColumns = []string{
	"participant_id", "test_section_id", "sentence", "user_input",
	"keystroke_id", "press_time", "release_time", "letter", "keycode",
	"session_timestamp",
}

var sessionColumns = []string{
	"participant_id", "test_section_id", "sentence_count",
	"total_keystrokes", "average_wpm", "session_timestamp",
}

// EnsureTables creates the analytical database and tables when absent
func EnsureTables(ctx context.Context, ch store.Clickhouse) error {
	const db = `CREATE DATABASE IF NOT EXISTS keycap`
	const keystrokes = `
CREATE TABLE IF NOT EXISTS keycap.keystrokes (
	participant_id    String,
	test_section_id   String,
	sentence          String,
	user_input        String,
	keystroke_id      Int32,
	press_time        Int64,
	release_time      Int64,
	letter            String,
	keycode           Int32,
	session_timestamp String
) ENGINE = MergeTree
ORDER BY (participant_id, test_section_id, keystroke_id)`
	const sessions = `
CREATE TABLE IF NOT EXISTS keycap.sessions (
	participant_id    String,
	test_section_id   String,
	sentence_count    Int32,
	total_keystrokes  Int32,
	average_wpm       Int32,
	session_timestamp String
) ENGINE = MergeTree
ORDER BY (participant_id)`

	for _, ddl := range []string{db, keystrokes, sessions} {
		if err := ch.Exec(ctx, ddl); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "ingest tables")
		}
	}
	return nil
}

// ReplaceKeystrokes clears any previous copy of the section and writes the
// rows fresh, so a rerun of the same section never duplicates remotely
func (s *hybridStore) ReplaceKeystrokes(ctx context.Context, participantID, testSectionID string, rows []RowKeystroke) error {
	if err := s.ch.Exec(ctx, `
		ALTER TABLE keycap.keystrokes
		DELETE WHERE participant_id = ? AND test_section_id = ?
		SETTINGS mutations_sync=1`,
		participantID, testSectionID,
	); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, r := range rows {
		batch = append(batch, []any{
			r.ParticipantID, r.TestSectionID, r.Sentence, r.UserInput,
			int32(r.KeystrokeID), r.PressTime, r.ReleaseTime, r.Letter, int32(r.Keycode),
			r.SessionTimestamp,
		})
	}
	return s.ch.Insert(ctx, "keycap.keystrokes", keystrokeColumns, batch)
}

// ReplaceSession clears every previous summary for the participant before
// writing the final one
func (s *hybridStore) ReplaceSession(ctx context.Context, row RowSessionSummary) error {
	if err := s.ch.Exec(ctx, `
		ALTER TABLE keycap.sessions
		DELETE WHERE participant_id = ?
		SETTINGS mutations_sync=1`,
		row.ParticipantID,
	); err != nil {
		return err
	}
	return s.ch.Insert(ctx, "keycap.sessions", sessionColumns, [][]any{{
		row.ParticipantID, row.TestSectionID, int32(row.SentenceCount),
		int32(row.TotalKeystrokes), int32(row.AverageWPM), row.SessionTimestamp,
	}})
}
