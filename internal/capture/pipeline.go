package capture

import (
	"context"

	"keycap/internal/core/correlate"
	"keycap/internal/platform/logger"
	sessiondom "keycap/internal/services/session/domain"
)

// Pipeline couples the lifecycle machine, the correlator, and the batch
// buffer. Raw key signals only count while a section is active; everything
// else is dropped at the door
type Pipeline struct {
	machine *sessiondom.Machine
	corr    *correlate.Correlator
	buf     *Buffer
	disp    Dispatcher

	// OnRetract is called when a repeat press indicates the last visible
	// character must be withdrawn from the display layer. Optional
	OnRetract func(keycode int)
}

// NewPipeline builds a pipeline flushing through d at the given batch size
func NewPipeline(m *sessiondom.Machine, d Dispatcher, batchSize int) *Pipeline {
	return &Pipeline{
		machine: m,
		corr:    correlate.New(),
		buf:     NewBuffer(batchSize),
		disp:    d,
	}
}

// Machine exposes the lifecycle machine for the host application
func (p *Pipeline) Machine() *sessiondom.Machine { return p.machine }

// KeyDown records a physical press. A held key reports a retraction hint
// instead of a new event
func (p *Pipeline) KeyDown(t int64, keycode int, char string) {
	if !p.machine.CaptureEnabled() {
		return
	}
	if retract := p.corr.Press(keycode, t, char); retract && p.OnRetract != nil {
		p.OnRetract(keycode)
	}
}

// KeyPress refines the letter of the most recent unresolved press
func (p *Pipeline) KeyPress(t int64, char string) {
	if !p.machine.CaptureEnabled() {
		return
	}
	p.corr.Resolve(t, char)
}

// KeyUp closes the oldest matching press. A completed pair goes through
// the buffer and may trigger a flush
func (p *Pipeline) KeyUp(ctx context.Context, t int64, keycode int) error {
	if !p.machine.CaptureEnabled() {
		return nil
	}
	rec, ok := p.corr.Release(keycode, t)
	if !ok {
		return nil
	}
	if p.buf.Add(rec) {
		return p.buf.Flush(ctx, p.disp)
	}
	return nil
}

// BeginSection opens the next prompt and resets per section state
func (p *Pipeline) BeginSection() error {
	if err := p.machine.BeginSection(); err != nil {
		return err
	}
	p.corr.Reset()
	return nil
}

// CompleteSection flushes the partial tail and closes the prompt. The
// buffer must drain before the section can close; a failed flush leaves
// the section open so the records are not stranded
func (p *Pipeline) CompleteSection(ctx context.Context) (more bool, err error) {
	if err := p.buf.Flush(ctx, p.disp); err != nil {
		return false, err
	}
	if n := p.corr.Pending(); n > 0 {
		logger.Named("capture").Debug().Int("unresolved", n).Msg("section closed with keys still down")
	}
	p.corr.Reset()
	return p.machine.CompleteSection()
}

// Pending reports records waiting in the buffer
func (p *Pipeline) Pending() int { return p.buf.Len() }
