// Package service contains session workflows
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
	ptime "keycap/internal/platform/time"
	"keycap/internal/services/session/domain"
	"keycap/internal/services/session/repo"
)

// Service defines the service contract for sessions
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	// seam for deterministic ids in tests
	now func() time.Time
}

// New creates a new session service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("session.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("session.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, now: time.Now}
}

// Create allocates a participant id and the first test section in one
// transaction. The participant id embeds the email local part and the
// session timestamp so local capture folders sort by run
func (s *Svc) Create(ctx context.Context, userID string, in domain.CreateInput) (domain.NewSession, error) {
	if in.QuestionCount < 1 || in.QuestionCount > 50 {
		return domain.NewSession{}, perr.InvalidArgf("question count %d outside 1..50", in.QuestionCount)
	}
	if strings.TrimSpace(in.Sentence) == "" {
		return domain.NewSession{}, perr.InvalidArgf("sentence must not be empty")
	}

	ts := s.now().UTC().Format("20060102_150405")
	sectionID := uuid.NewString()

	var pid string
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		email, err := r.UserEmail(ctx, userID)
		if err != nil {
			return err
		}
		pid = slugEmail(email) + "_" + ts
		if err := r.InsertParticipant(ctx, repo.RowParticipant{
			ParticipantID:    pid,
			UserID:           userID,
			SessionTimestamp: ts,
			QuestionCount:    in.QuestionCount,
		}); err != nil {
			return err
		}
		return r.InsertSection(ctx, repo.RowSection{
			TestSectionID: sectionID,
			ParticipantID: pid,
			Sentence:      in.Sentence,
			Position:      0,
		})
	})
	if err != nil {
		return domain.NewSession{}, err
	}
	return domain.NewSession{
		ParticipantID:    pid,
		TestSectionID:    sectionID,
		Sentence:         in.Sentence,
		SessionTimestamp: ts,
		QuestionCount:    in.QuestionCount,
	}, nil
}

// CreateSection opens the next prompt for an existing participant
func (s *Svc) CreateSection(ctx context.Context, userID string, in domain.SectionInput) (domain.NewSection, error) {
	if strings.TrimSpace(in.Sentence) == "" {
		return domain.NewSection{}, perr.InvalidArgf("sentence must not be empty")
	}

	var out domain.NewSection
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		p, err := r.Participant(ctx, in.ParticipantID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return perr.Forbiddenf("participant %s belongs to another user", in.ParticipantID)
		}
		pos, err := r.NextPosition(ctx, in.ParticipantID)
		if err != nil {
			return err
		}
		if pos >= p.QuestionCount {
			return perr.Conflictf("participant %s already has all %d sections", in.ParticipantID, p.QuestionCount)
		}
		out = domain.NewSection{TestSectionID: uuid.NewString(), Sentence: in.Sentence, Position: pos}
		return r.InsertSection(ctx, repo.RowSection{
			TestSectionID: out.TestSectionID,
			ParticipantID: in.ParticipantID,
			Sentence:      in.Sentence,
			Position:      pos,
		})
	})
	if err != nil {
		return domain.NewSection{}, err
	}
	return out, nil
}

// Stats serves the aggregate view for the participant owning a section
func (s *Svc) Stats(ctx context.Context, userID, testSectionID string) (domain.SectionStats, error) {
	var row repo.RowStats
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		row, err = s.binder.Bind(q).Stats(ctx, testSectionID)
		return err
	})
	if err != nil {
		return domain.SectionStats{}, err
	}
	if row.UserID != userID {
		return domain.SectionStats{}, perr.Forbiddenf("test section %s belongs to another user", testSectionID)
	}
	return domain.SectionStats{
		ParticipantID:   row.ParticipantID,
		Sentence:        row.Sentence,
		SentenceCount:   row.SentenceCount,
		TotalKeystrokes: row.TotalKeystrokes,
		QuestionCount:   row.QuestionCount,
	}, nil
}

// Participant serves one run with its sections in prompt order
func (s *Svc) Participant(ctx context.Context, userID, participantID string) (domain.Participant, error) {
	var (
		p        repo.RowParticipant
		sections []repo.RowSection
	)
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		if p, err = r.Participant(ctx, participantID); err != nil {
			return err
		}
		sections, err = r.Sections(ctx, participantID)
		return err
	})
	if err != nil {
		return domain.Participant{}, err
	}
	if p.UserID != userID {
		return domain.Participant{}, perr.Forbiddenf("participant %s belongs to another user", participantID)
	}

	out := domain.Participant{
		ParticipantID:    p.ParticipantID,
		SessionTimestamp: p.SessionTimestamp,
		QuestionCount:    p.QuestionCount,
		CreatedAt:        p.CreatedAt,
		Sections:         make([]domain.TestSection, 0, len(sections)),
	}
	if p.EndedAt.Valid {
		out.EndedAt = ptime.Ptr(p.EndedAt.Time)
	}
	for _, sec := range sections {
		out.Sections = append(out.Sections, domain.TestSection{
			TestSectionID:  sec.TestSectionID,
			Sentence:       sec.Sentence,
			Position:       sec.Position,
			KeystrokeCount: sec.KeystrokeCount,
		})
	}
	return out, nil
}

// slugEmail reduces the email local part to [a-z0-9_]. Local parts with
// nothing alphanumeric in them fall back to "participant" rather than a
// string of underscores
func slugEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	local = strings.ToLower(local)
	var b strings.Builder
	b.Grow(len(local))
	anyAlnum := false
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			anyAlnum = true
		default:
			b.WriteByte('_')
		}
	}
	if !anyAlnum {
		return "participant"
	}
	return b.String()
}
