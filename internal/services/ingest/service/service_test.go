package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keycap/internal/adapters/locallog"
	"keycap/internal/modkit/repokit"
	"keycap/internal/platform/store"
	"keycap/internal/services/ingest/domain"
	"keycap/internal/services/ingest/repo"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	var z store.CommandTag
	return z, nil
}
func (fakeDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (fakeDB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeDB{})
}

type fakeRepo struct {
	sections   map[string]*repo.RowSection
	remoteKeys map[string][]repo.RowKeystroke
	remoteSess map[string]repo.RowSessionSummary
	ended      map[string]bool
	failRemote bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sections:   map[string]*repo.RowSection{},
		remoteKeys: map[string][]repo.RowKeystroke{},
		remoteSess: map[string]repo.RowSessionSummary{},
		ended:      map[string]bool{},
	}
}

func (f *fakeRepo) Section(_ context.Context, id string) (repo.RowSection, error) {
	s, ok := f.sections[id]
	if !ok {
		return repo.RowSection{}, os.ErrNotExist
	}
	return *s, nil
}

func (f *fakeRepo) AddKeystrokes(_ context.Context, id string, n int) (int, error) {
	s, ok := f.sections[id]
	if !ok {
		return 0, os.ErrNotExist
	}
	s.KeystrokeCount += n
	return s.KeystrokeCount, nil
}

func (f *fakeRepo) SessionAggregates(_ context.Context, pid string) (repo.RowAggregates, error) {
	agg := repo.RowAggregates{ParticipantID: pid, SessionTimestamp: "20260901_120000"}
	for _, s := range f.sections {
		if s.ParticipantID != pid {
			continue
		}
		agg.UserID = s.UserID
		agg.LastSectionID = s.TestSectionID
		agg.SentenceCount++
		agg.TotalKeystrokes += s.KeystrokeCount
	}
	if agg.SentenceCount == 0 {
		return repo.RowAggregates{}, os.ErrNotExist
	}
	return agg, nil
}

func (f *fakeRepo) MarkEnded(_ context.Context, pid string) error {
	f.ended[pid] = true
	return nil
}

func (f *fakeRepo) ReplaceKeystrokes(_ context.Context, _, sectionID string, rows []repo.RowKeystroke) error {
	if f.failRemote {
		return os.ErrDeadlineExceeded
	}
	f.remoteKeys[sectionID] = append([]repo.RowKeystroke(nil), rows...)
	return nil
}

func (f *fakeRepo) ReplaceSession(_ context.Context, row repo.RowSessionSummary) error {
	if f.failRemote {
		return os.ErrDeadlineExceeded
	}
	f.remoteSess[row.ParticipantID] = row
	return nil
}

func newTestSvc(t *testing.T) (*Svc, *fakeRepo, string) {
	t.Helper()
	fr := newFakeRepo()
	fr.sections["sec-1"] = &repo.RowSection{
		TestSectionID:    "sec-1",
		ParticipantID:    "jane_20260901_120000",
		UserID:           "user-1",
		Sentence:         "hello world",
		SessionTimestamp: "20260901_120000",
	}
	dir := t.TempDir()
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return fr })
	return New(fakeDB{}, binder, locallog.New(dir)), fr, dir
}

func batch(ids ...int) domain.BatchInput {
	in := domain.BatchInput{
		ParticipantID: "jane_20260901_120000",
		TestSectionID: "sec-1",
		Sentence:      "hello world",
		UserInput:     "hel",
	}
	for _, id := range ids {
		in.Keystrokes = append(in.Keystrokes, domain.Keystroke{
			KeystrokeID: id,
			PressTime:   int64(1000 + id*100),
			ReleaseTime: int64(1080 + id*100),
			Letter:      "h",
			Keycode:     72,
		})
	}
	return in
}

func TestAcceptAppendsLocallyAndBuffers(t *testing.T) {
	t.Parallel()

	s, _, dir := newTestSvc(t)
	ctx := context.Background()

	ack, err := s.Accept(ctx, "user-1", batch(0, 1, 2))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if ack.Accepted != 3 || ack.NextKeystrokeID != 3 {
		t.Fatalf("ack = %+v, want accepted=3 next=3", ack)
	}

	ack, err = s.Accept(ctx, "user-1", batch(3, 4))
	if err != nil {
		t.Fatalf("Accept second: %v", err)
	}
	if ack.NextKeystrokeID != 5 {
		t.Fatalf("watermark = %d, want 5", ack.NextKeystrokeID)
	}
	if got := s.Buffered("sec-1"); got != 5 {
		t.Fatalf("buffered = %d, want 5", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "jane_20260901_120000", "20260901_120000", "keystrokes.csv"))
	if err != nil {
		t.Fatalf("read local log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 6 { // header + 5 rows
		t.Fatalf("local log has %d lines, want 6", len(lines))
	}
}

func TestAcceptRejectsForeignSection(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSvc(t)
	if _, err := s.Accept(context.Background(), "someone-else", batch(0)); err == nil {
		t.Fatalf("foreign user must not ingest into the section")
	}

	in := batch(0)
	in.ParticipantID = "other_participant"
	if _, err := s.Accept(context.Background(), "user-1", in); err == nil {
		t.Fatalf("mismatched participant must be rejected")
	}
}

func TestCompleteSectionSyncsAndClears(t *testing.T) {
	t.Parallel()

	s, fr, _ := newTestSvc(t)
	ctx := context.Background()
	if _, err := s.Accept(ctx, "user-1", batch(0, 1)); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	ack, err := s.CompleteSection(ctx, "user-1", domain.SectionCompleteInput{
		ParticipantID: "jane_20260901_120000", TestSectionID: "sec-1",
	})
	if err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if !ack.RemoteSynced || ack.Keystrokes != 2 {
		t.Fatalf("ack = %+v, want synced with 2 rows", ack)
	}
	if len(fr.remoteKeys["sec-1"]) != 2 {
		t.Fatalf("remote rows = %d, want 2", len(fr.remoteKeys["sec-1"]))
	}
	if s.Buffered("sec-1") != 0 {
		t.Fatalf("buffer should clear after a successful sync")
	}
}

func TestCompleteSectionRetainsBufferOnRemoteFailure(t *testing.T) {
	t.Parallel()

	s, fr, _ := newTestSvc(t)
	ctx := context.Background()
	if _, err := s.Accept(ctx, "user-1", batch(0, 1, 2)); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	fr.failRemote = true
	ack, err := s.CompleteSection(ctx, "user-1", domain.SectionCompleteInput{
		ParticipantID: "jane_20260901_120000", TestSectionID: "sec-1",
	})
	if err != nil {
		t.Fatalf("remote failure must not fail the request: %v", err)
	}
	if ack.RemoteSynced {
		t.Fatalf("ack should flag the failed sync")
	}
	if s.Buffered("sec-1") != 3 {
		t.Fatalf("buffer must retain rows after a failed sync, have %d", s.Buffered("sec-1"))
	}

	// the retry ships the same rows exactly once
	fr.failRemote = false
	ack, err = s.CompleteSection(ctx, "user-1", domain.SectionCompleteInput{
		ParticipantID: "jane_20260901_120000", TestSectionID: "sec-1",
	})
	if err != nil || !ack.RemoteSynced {
		t.Fatalf("retry: ack=%+v err=%v", ack, err)
	}
	if len(fr.remoteKeys["sec-1"]) != 3 {
		t.Fatalf("remote rows = %d, want 3", len(fr.remoteKeys["sec-1"]))
	}
}

func TestEndFlushesRetainedSectionBuffers(t *testing.T) {
	t.Parallel()

	s, fr, _ := newTestSvc(t)
	ctx := context.Background()
	if _, err := s.Accept(ctx, "user-1", batch(0, 1, 2)); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	// section completes while the remote store is down, rows stay buffered
	fr.failRemote = true
	if _, err := s.CompleteSection(ctx, "user-1", domain.SectionCompleteInput{
		ParticipantID: "jane_20260901_120000", TestSectionID: "sec-1",
	}); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if s.Buffered("sec-1") != 3 {
		t.Fatalf("buffer should retain rows, have %d", s.Buffered("sec-1"))
	}

	// remote store recovers before the session ends
	fr.failRemote = false
	ack, err := s.End(ctx, "user-1", domain.EndInput{ParticipantID: "jane_20260901_120000", AverageWPM: 40})
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if !ack.RemoteSynced {
		t.Fatalf("ack = %+v, want remote synced", ack)
	}
	if len(fr.remoteKeys["sec-1"]) != 3 {
		t.Fatalf("end must ship the retained section, remote has %d rows", len(fr.remoteKeys["sec-1"]))
	}
	if s.Buffered("sec-1") != 0 {
		t.Fatalf("buffers should drop after the final flush")
	}
}

func TestRerunReplacesRemoteCopy(t *testing.T) {
	t.Parallel()

	s, fr, _ := newTestSvc(t)
	ctx := context.Background()
	complete := domain.SectionCompleteInput{ParticipantID: "jane_20260901_120000", TestSectionID: "sec-1"}

	if _, err := s.Accept(ctx, "user-1", batch(0, 1)); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := s.CompleteSection(ctx, "user-1", complete); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}

	// rerun of the same section
	if _, err := s.Accept(ctx, "user-1", batch(0, 1, 2)); err != nil {
		t.Fatalf("Accept rerun: %v", err)
	}
	if _, err := s.CompleteSection(ctx, "user-1", complete); err != nil {
		t.Fatalf("CompleteSection rerun: %v", err)
	}
	if len(fr.remoteKeys["sec-1"]) != 3 {
		t.Fatalf("remote copy should be replaced, not appended, have %d rows", len(fr.remoteKeys["sec-1"]))
	}
}

func TestEndWritesSummaryEvenWhenRemoteFails(t *testing.T) {
	t.Parallel()

	s, fr, dir := newTestSvc(t)
	ctx := context.Background()
	if _, err := s.Accept(ctx, "user-1", batch(0, 1)); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	fr.failRemote = true
	ack, err := s.End(ctx, "user-1", domain.EndInput{ParticipantID: "jane_20260901_120000", AverageWPM: 48})
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ack.RemoteSynced {
		t.Fatalf("ack should flag the failed remote sync")
	}
	if ack.TotalKeystrokes != 2 || ack.SentenceCount != 1 || ack.AverageWPM != 48 {
		t.Fatalf("ack = %+v", ack)
	}
	if !fr.ended["jane_20260901_120000"] {
		t.Fatalf("participant should be marked ended")
	}

	raw, err := os.ReadFile(filepath.Join(dir, "jane_20260901_120000", "20260901_120000", "sessions.csv"))
	if err != nil {
		t.Fatalf("read sessions log: %v", err)
	}
	if !strings.Contains(string(raw), "48") {
		t.Fatalf("summary row missing from local log: %q", raw)
	}
}
