package capture

import (
	"context"
	"errors"
	"io"
	"math"

	"keycap/internal/adapters/apiclient"
	"keycap/internal/adapters/signals"
	"keycap/internal/core/correlate"
	"keycap/internal/platform/logger"
	ingestdom "keycap/internal/services/ingest/domain"
	sessiondom "keycap/internal/services/session/domain"
)

// Replayer drives a recorded browser session against a live capture API,
// exercising the exact pipeline a real client would
type Replayer struct {
	Client        *apiclient.Client
	QuestionCount int
	BatchSize     int
}

// ReplaySummary reports what a replay shipped
type ReplaySummary struct {
	ParticipantID string
	Sections      int
	Keystrokes    int
	AverageWPM    int
}

// Run streams a recording to its end and finalizes the session
func (rp *Replayer) Run(ctx context.Context, rd *signals.Reader) (ReplaySummary, error) {
	log := logger.Named("replay")

	machine := sessiondom.NewMachine()
	if err := machine.Consent(); err != nil {
		return ReplaySummary{}, err
	}
	if err := machine.Configure(rp.QuestionCount, 50); err != nil {
		return ReplaySummary{}, err
	}

	var (
		participantID string
		sectionID     string
		sentence      string
		typed         string
		shipped       int
		wpms          []int
	)
	tracker := NewTracker()

	dispatch := DispatchFunc(func(ctx context.Context, records []correlate.Record) error {
		for _, r := range records {
			tracker.Observe(r)
		}
		ack, err := rp.Client.PostBatch(ctx, ingestdom.BatchInput{
			ParticipantID: participantID,
			TestSectionID: sectionID,
			Sentence:      sentence,
			UserInput:     typed,
			Keystrokes:    toWire(records),
		})
		if err != nil {
			return err
		}
		shipped += ack.Accepted
		return nil
	})
	pipe := NewPipeline(machine, dispatch, rp.BatchSize)

	for {
		sig, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReplaySummary{}, err
		}

		switch sig.Kind {
		case signals.KindSectionStart:
			sentence, typed = sig.Sentence, ""
			if participantID == "" {
				created, err := rp.Client.CreateSession(ctx, sessiondom.CreateInput{
					QuestionCount: rp.QuestionCount,
					Sentence:      sentence,
				})
				if err != nil {
					return ReplaySummary{}, err
				}
				participantID, sectionID = created.ParticipantID, created.TestSectionID
			} else {
				next, err := rp.Client.CreateSection(ctx, sessiondom.SectionInput{
					ParticipantID: participantID,
					Sentence:      sentence,
				})
				if err != nil {
					return ReplaySummary{}, err
				}
				sectionID = next.TestSectionID
			}
			tracker.ResetSection()
			tracker.SetInput(sentence, typed)
			if err := pipe.BeginSection(); err != nil {
				return ReplaySummary{}, err
			}

		case signals.KindKeyDown:
			pipe.KeyDown(sig.Time, sig.Keycode, sig.Char)

		case signals.KindKeyPress:
			pipe.KeyPress(sig.Time, sig.Char)
			if sig.Input != "" {
				typed = sig.Input
				tracker.SetInput(sentence, typed)
			}

		case signals.KindKeyUp:
			if err := pipe.KeyUp(ctx, sig.Time, sig.Keycode); err != nil {
				return ReplaySummary{}, err
			}

		case signals.KindSectionSubmit:
			if sig.Input != "" {
				typed = sig.Input
				tracker.SetInput(sentence, typed)
			}
			if _, err := pipe.CompleteSection(ctx); err != nil {
				return ReplaySummary{}, err
			}
			snap := tracker.Snapshot()
			wpms = append(wpms, snap.WPM)
			ack, err := rp.Client.CompleteSection(ctx, ingestdom.SectionCompleteInput{
				ParticipantID: participantID,
				TestSectionID: sectionID,
			})
			if err != nil {
				return ReplaySummary{}, err
			}
			if !ack.RemoteSynced {
				log.Warn().Str("test_section_id", sectionID).
					Msg("remote sync pending, server retries at session end")
			}
			log.Info().Str("test_section_id", sectionID).Int("wpm", snap.WPM).
				Float64("mismatch", snap.Mismatch).Msg("section replayed")

		case signals.KindSessionEnd:
			// handled after the loop, recordings put it last
		}
	}

	if participantID == "" {
		return ReplaySummary{}, errors.New("recording holds no sections")
	}

	avg := averageWPM(wpms)
	ack, err := rp.Client.EndTest(ctx, ingestdom.EndInput{ParticipantID: participantID, AverageWPM: avg})
	if err != nil {
		return ReplaySummary{}, err
	}

	return ReplaySummary{
		ParticipantID: participantID,
		Sections:      ack.SentenceCount,
		Keystrokes:    shipped,
		AverageWPM:    avg,
	}, nil
}

func toWire(records []correlate.Record) []ingestdom.Keystroke {
	out := make([]ingestdom.Keystroke, 0, len(records))
	for _, r := range records {
		out = append(out, ingestdom.Keystroke{
			KeystrokeID: r.KeystrokeID,
			PressTime:   r.PressTime,
			ReleaseTime: r.ReleaseTime,
			Letter:      r.Letter,
			Keycode:     r.Keycode,
		})
	}
	return out
}

func averageWPM(wpms []int) int {
	if len(wpms) == 0 {
		return 0
	}
	sum := 0
	for _, w := range wpms {
		sum += w
	}
	return int(math.Round(float64(sum) / float64(len(wpms))))
}
