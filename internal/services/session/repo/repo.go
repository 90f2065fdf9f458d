// Package repo provides postgres access for sessions
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"time"

	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
	"keycap/internal/platform/store"
)

// Repo defines the repository contract for sessions
type Repo interface {
	InsertParticipant(ctx context.Context, row RowParticipant) error
	InsertSection(ctx context.Context, row RowSection) error
	Participant(ctx context.Context, participantID string) (RowParticipant, error)
	Section(ctx context.Context, testSectionID string) (RowSection, error)
	Sections(ctx context.Context, participantID string) ([]RowSection, error)
	NextPosition(ctx context.Context, participantID string) (int, error)
	Stats(ctx context.Context, testSectionID string) (RowStats, error)
	UserEmail(ctx context.Context, userID string) (string, error)
}

// RowParticipant represents a participant row
type RowParticipant struct {
	ParticipantID    string
	UserID           string
	SessionTimestamp string
	QuestionCount    int
	CreatedAt        time.Time
	EndedAt          stdsql.NullTime
}

// RowSection represents a test section row
type RowSection struct {
	TestSectionID  string
	ParticipantID  string
	Sentence       string
	Position       int
	KeystrokeCount int
}

// RowStats is the aggregate view for one section's participant
type RowStats struct {
	ParticipantID   string
	UserID          string
	Sentence        string
	SentenceCount   int
	TotalKeystrokes int
	QuestionCount   int
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// EnsureSchema creates the identity tables when they do not exist yet
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	const participants = `
CREATE TABLE IF NOT EXISTS participants (
	participant_id    text PRIMARY KEY,
	user_id           uuid NOT NULL,
	session_timestamp text NOT NULL,
	question_count    int  NOT NULL,
	created_at        timestamptz NOT NULL DEFAULT now(),
	ended_at          timestamptz
)`
	const sections = `
CREATE TABLE IF NOT EXISTS test_sections (
	test_section_id text PRIMARY KEY,
	participant_id  text NOT NULL REFERENCES participants(participant_id),
	sentence        text NOT NULL,
	position        int  NOT NULL,
	keystroke_count int  NOT NULL DEFAULT 0,
	created_at      timestamptz NOT NULL DEFAULT now()
)`
	const sectionsByParticipant = `
CREATE INDEX IF NOT EXISTS idx_test_sections_participant ON test_sections (participant_id, position)`

	for _, ddl := range []string{participants, sections, sectionsByParticipant} {
		if _, err := q.Exec(ctx, ddl); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "session schema")
		}
	}
	return nil
}

func (r *queries) InsertParticipant(ctx context.Context, row RowParticipant) error {
	const sql = `
INSERT INTO participants (participant_id, user_id, session_timestamp, question_count)
VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, sql, row.ParticipantID, row.UserID, row.SessionTimestamp, row.QuestionCount)
	return err
}

func (r *queries) InsertSection(ctx context.Context, row RowSection) error {
	const sql = `
INSERT INTO test_sections (test_section_id, participant_id, sentence, position)
VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, sql, row.TestSectionID, row.ParticipantID, row.Sentence, row.Position)
	return err
}

func (r *queries) Participant(ctx context.Context, participantID string) (RowParticipant, error) {
	const sql = `
SELECT participant_id, user_id::text, session_timestamp, question_count, created_at, ended_at
FROM participants
WHERE participant_id = $1`
	var row RowParticipant
	err := r.q.QueryRow(ctx, sql, participantID).
		Scan(&row.ParticipantID, &row.UserID, &row.SessionTimestamp, &row.QuestionCount, &row.CreatedAt, &row.EndedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowParticipant{}, perr.NotFoundf("participant %s", participantID)
		}
		return RowParticipant{}, err
	}
	return row, nil
}

func (r *queries) Section(ctx context.Context, testSectionID string) (RowSection, error) {
	const sql = `
SELECT test_section_id, participant_id, sentence, position, keystroke_count
FROM test_sections
WHERE test_section_id = $1`
	var row RowSection
	err := r.q.QueryRow(ctx, sql, testSectionID).
		Scan(&row.TestSectionID, &row.ParticipantID, &row.Sentence, &row.Position, &row.KeystrokeCount)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowSection{}, perr.NotFoundf("test section %s", testSectionID)
		}
		return RowSection{}, err
	}
	return row, nil
}

func (r *queries) Sections(ctx context.Context, participantID string) ([]RowSection, error) {
	const sql = `
SELECT test_section_id, participant_id, sentence, position, keystroke_count
FROM test_sections
WHERE participant_id = $1
ORDER BY position`
	return store.Many(ctx, r.q, func(row store.Row) (RowSection, error) {
		var s RowSection
		err := row.Scan(&s.TestSectionID, &s.ParticipantID, &s.Sentence, &s.Position, &s.KeystrokeCount)
		return s, err
	}, sql, participantID)
}

func (r *queries) NextPosition(ctx context.Context, participantID string) (int, error) {
	const sql = `
SELECT COALESCE(MAX(position) + 1, 0)
FROM test_sections
WHERE participant_id = $1`
	return store.Scalar[int](ctx, r.q, sql, participantID)
}

func (r *queries) UserEmail(ctx context.Context, userID string) (string, error) {
	const sql = `SELECT email FROM users WHERE user_id = $1`
	email, err := store.Scalar[string](ctx, r.q, sql, userID)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return "", perr.NotFoundf("user %s", userID)
		}
		return "", err
	}
	return email, nil
}

func (r *queries) Stats(ctx context.Context, testSectionID string) (RowStats, error) {
	const sql = `
SELECT p.participant_id, p.user_id::text, s.sentence, p.question_count,
	(SELECT COUNT(*) FROM test_sections t WHERE t.participant_id = p.participant_id),
	(SELECT COALESCE(SUM(t.keystroke_count), 0) FROM test_sections t WHERE t.participant_id = p.participant_id)
FROM test_sections s
JOIN participants p ON p.participant_id = s.participant_id
WHERE s.test_section_id = $1`
	var row RowStats
	err := r.q.QueryRow(ctx, sql, testSectionID).
		Scan(&row.ParticipantID, &row.UserID, &row.Sentence, &row.QuestionCount, &row.SentenceCount, &row.TotalKeystrokes)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowStats{}, perr.NotFoundf("test section %s", testSectionID)
		}
		return RowStats{}, err
	}
	return row, nil
}
