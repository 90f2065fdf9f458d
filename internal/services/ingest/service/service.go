// Package service contains the ingestion sink workflows
package service

import (
	"context"
	"sync"

	"keycap/internal/adapters/locallog"
	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
	"keycap/internal/platform/logger"
	"keycap/internal/services/ingest/domain"
	"keycap/internal/services/ingest/repo"
)

// Service defines the service contract for ingestion
type Service interface{ domain.ServicePort }

// Svc implements the Service interface.
//
// Every accepted batch lands in the local append-only log before it is
// acknowledged; the local log is the record of truth. The remote analytical
// store is refreshed per section with a delete-then-insert, and a remote
// failure never fails the request, the rows stay buffered for the next
// attempt
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	local  *locallog.Log

	mu       sync.Mutex
	sections map[string][]repo.RowKeystroke // accepted rows per open section
}

// New creates a new ingestion service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], local *locallog.Log) *Svc {
	if db == nil {
		panic("ingest.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("ingest.Service requires a non nil Repo binder")
	}
	if local == nil {
		panic("ingest.Service requires a local log")
	}
	return &Svc{
		Repo:     binder.Bind(db),
		binder:   binder,
		db:       db,
		local:    local,
		sections: make(map[string][]repo.RowKeystroke),
	}
}

// Accept appends one flushed batch to the local log and bumps the section's
// keystroke counter. The ack carries the counter so clients can watermark
func (s *Svc) Accept(ctx context.Context, userID string, in domain.BatchInput) (domain.BatchAck, error) {
	var rows []repo.RowKeystroke
	var total int

	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		section, err := s.ownedSection(ctx, r, userID, in.ParticipantID, in.TestSectionID)
		if err != nil {
			return err
		}

		rows = make([]repo.RowKeystroke, 0, len(in.Keystrokes))
		locals := make([]locallog.KeystrokeRow, 0, len(in.Keystrokes))
		for _, k := range in.Keystrokes {
			row := repo.RowKeystroke{
				ParticipantID:    section.ParticipantID,
				TestSectionID:    section.TestSectionID,
				Sentence:         in.Sentence,
				UserInput:        in.UserInput,
				KeystrokeID:      k.KeystrokeID,
				PressTime:        k.PressTime,
				ReleaseTime:      k.ReleaseTime,
				Letter:           k.Letter,
				Keycode:          k.Keycode,
				SessionTimestamp: section.SessionTimestamp,
			}
			rows = append(rows, row)
			locals = append(locals, locallog.KeystrokeRow(row))
		}

		total, err = r.AddKeystrokes(ctx, section.TestSectionID, len(rows))
		if err != nil {
			return err
		}
		// inside the tx so a write failure rolls the counter back
		return s.local.AppendKeystrokes(locals)
	})
	if err != nil {
		return domain.BatchAck{}, err
	}

	s.mu.Lock()
	s.sections[in.TestSectionID] = append(s.sections[in.TestSectionID], rows...)
	s.mu.Unlock()

	return domain.BatchAck{Accepted: len(rows), NextKeystrokeID: total}, nil
}

// CompleteSection pushes everything buffered for the section to the remote
// store, replacing any earlier copy of the same section
func (s *Svc) CompleteSection(ctx context.Context, userID string, in domain.SectionCompleteInput) (domain.SectionAck, error) {
	var section repo.RowSection
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		section, err = s.ownedSection(ctx, s.binder.Bind(q), userID, in.ParticipantID, in.TestSectionID)
		return err
	})
	if err != nil {
		return domain.SectionAck{}, err
	}

	s.mu.Lock()
	rows := s.sections[in.TestSectionID]
	s.mu.Unlock()

	if len(rows) == 0 {
		// nothing buffered for this section, the local log still has any
		// rows from a previous process lifetime so leave the remote alone
		return domain.SectionAck{Keystrokes: section.KeystrokeCount, RemoteSynced: section.KeystrokeCount == 0}, nil
	}

	if err := s.Repo.ReplaceKeystrokes(ctx, section.ParticipantID, section.TestSectionID, rows); err != nil {
		logger.Named("ingest").Warn().Err(err).
			Str("participant_id", section.ParticipantID).
			Str("test_section_id", section.TestSectionID).
			Int("rows", len(rows)).
			Msg("remote keystroke sync failed, rows stay buffered")
		return domain.SectionAck{Keystrokes: len(rows), RemoteSynced: false}, nil
	}

	s.mu.Lock()
	delete(s.sections, in.TestSectionID)
	s.mu.Unlock()

	return domain.SectionAck{Keystrokes: len(rows), RemoteSynced: true}, nil
}

// End writes the session summary locally, marks the participant finished,
// and mirrors the summary remotely
func (s *Svc) End(ctx context.Context, userID string, in domain.EndInput) (domain.SessionAck, error) {
	if in.AverageWPM < 0 {
		return domain.SessionAck{}, perr.InvalidArgf("average wpm must not be negative")
	}

	var agg repo.RowAggregates
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		agg, err = r.SessionAggregates(ctx, in.ParticipantID)
		if err != nil {
			return err
		}
		if agg.UserID != userID {
			return perr.Forbiddenf("participant %s belongs to another user", in.ParticipantID)
		}
		if err := r.MarkEnded(ctx, in.ParticipantID); err != nil {
			return err
		}
		return s.local.AppendSession(locallog.SessionRow{
			ParticipantID:    agg.ParticipantID,
			TestSectionID:    agg.LastSectionID,
			SentenceCount:    agg.SentenceCount,
			TotalKeystrokes:  agg.TotalKeystrokes,
			AverageWPM:       in.AverageWPM,
			SessionTimestamp: agg.SessionTimestamp,
		})
	})
	if err != nil {
		return domain.SessionAck{}, err
	}

	synced := s.flushParticipantBuffers(ctx, agg.ParticipantID)

	if err := s.Repo.ReplaceSession(ctx, repo.RowSessionSummary{
		ParticipantID:    agg.ParticipantID,
		TestSectionID:    agg.LastSectionID,
		SentenceCount:    agg.SentenceCount,
		TotalKeystrokes:  agg.TotalKeystrokes,
		AverageWPM:       in.AverageWPM,
		SessionTimestamp: agg.SessionTimestamp,
	}); err != nil {
		logger.Named("ingest").Warn().Err(err).
			Str("participant_id", agg.ParticipantID).
			Msg("remote session sync failed, local summary is authoritative")
		synced = false
	}

	return domain.SessionAck{
		SentenceCount:   agg.SentenceCount,
		TotalKeystrokes: agg.TotalKeystrokes,
		AverageWPM:      in.AverageWPM,
		RemoteSynced:    synced,
	}, nil
}

// Buffered reports how many rows are pending remote sync for a section
func (s *Svc) Buffered(testSectionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sections[testSectionID])
}

func (s *Svc) ownedSection(ctx context.Context, r repo.Repo, userID, participantID, testSectionID string) (repo.RowSection, error) {
	section, err := r.Section(ctx, testSectionID)
	if err != nil {
		return repo.RowSection{}, err
	}
	if section.ParticipantID != participantID {
		return repo.RowSection{}, perr.Conflictf("test section %s is not part of %s", testSectionID, participantID)
	}
	if section.UserID != userID {
		return repo.RowSection{}, perr.Forbiddenf("test section %s belongs to another user", testSectionID)
	}
	return section, nil
}

// flushParticipantBuffers makes a last remote attempt for every section the
// participant still has buffered, then drops the buffers. Sections whose
// sync failed at completion get their retry here; the local log stays the
// record of truth when the remote store is still unreachable
func (s *Svc) flushParticipantBuffers(ctx context.Context, participantID string) bool {
	s.mu.Lock()
	pending := make(map[string][]repo.RowKeystroke)
	for id, rows := range s.sections {
		if len(rows) > 0 && rows[0].ParticipantID == participantID {
			pending[id] = rows
			delete(s.sections, id)
		}
	}
	s.mu.Unlock()

	ok := true
	for id, rows := range pending {
		if err := s.Repo.ReplaceKeystrokes(ctx, participantID, id, rows); err != nil {
			ok = false
			logger.Named("ingest").Warn().Err(err).
				Str("participant_id", participantID).
				Str("test_section_id", id).
				Int("rows", len(rows)).
				Msg("final remote keystroke sync failed, local log is authoritative")
		}
	}
	return ok
}
