package capture

import (
	"context"
	"sync"
	"time"

	"keycap/internal/core/correlate"
	"keycap/internal/core/typing"
)

// Snapshot is one metrics reading
type Snapshot struct {
	WPM      int     `json:"wpm"`
	Mismatch float64 `json:"mismatch_percent"`
}

// Tracker folds finished records and the current input into live metrics.
// With no activity the reading simply repeats, the rate never decays on
// its own
type Tracker struct {
	mu      sync.Mutex
	records []correlate.Record
	target  string
	typed   string
}

// NewTracker builds an empty tracker
func NewTracker() *Tracker { return &Tracker{} }

// Observe folds one finished record into the rate window
func (t *Tracker) Observe(rec correlate.Record) {
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// SetInput updates the prompt and what the participant has typed so far
func (t *Tracker) SetInput(target, typed string) {
	t.mu.Lock()
	t.target = target
	t.typed = typed
	t.mu.Unlock()
}

// ResetSection clears per section state
func (t *Tracker) ResetSection() {
	t.mu.Lock()
	t.records = nil
	t.typed = ""
	t.target = ""
	t.mu.Unlock()
}

// Snapshot computes the current reading
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		WPM:      typing.WordRate(t.records),
		Mismatch: typing.MismatchPercent(t.target, t.typed),
	}
}

// Poll emits a reading through fn on a fixed cadence until ctx is done
func (t *Tracker) Poll(ctx context.Context, every time.Duration, fn func(Snapshot)) {
	if every <= 0 {
		every = time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			fn(t.Snapshot())
		}
	}
}
