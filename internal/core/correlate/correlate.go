// Package correlate reconstructs finalized keystroke records from raw,
// partially-overlapping key-down / key-character / key-up signals.
//
// A Correlator is a deterministic reducer owned by one active test section.
// It keeps a per-keycode is-down set and a FIFO list of unresolved presses;
// records are emitted in release order with a section-scoped id counter
package correlate

import "keycap/internal/core/keymap"

// ResolveWindow is how far (in signal time units) a character-resolution
// signal may trail the key-down it resolves
const ResolveWindow = 20

// Record is one finalized press/release pair with resolved letter identity.
// Immutable once emitted; ReleaseTime >= PressTime and Letter is non-empty
type Record struct {
	KeystrokeID int    `json:"keystroke_id"`
	PressTime   int64  `json:"press_time"`
	ReleaseTime int64  `json:"release_time"`
	Keycode     int    `json:"keycode"`
	Letter      string `json:"letter"`
}

// pending is an in-flight press awaiting its release.
// Owned exclusively by the Correlator; never escapes
type pending struct {
	keycode  int
	downTime int64
	letter   string
}

// Correlator correlates raw key signals for a single test section
type Correlator struct {
	down       map[int]bool
	unresolved []pending
	nextID     int
}

// New returns an empty Correlator
func New() *Correlator {
	return &Correlator{down: make(map[int]bool)}
}

// Press feeds a key-down signal. char carries the raw character from the
// event when the browser provides one, otherwise "".
//
// A press for a keycode that is already down is hardware key-repeat: no
// unresolved entry is created, and the returned retract hint tells the
// caller to undo the last echoed character when the keycode is printable
// so repeat echo does not double-count
func (c *Correlator) Press(keycode int, t int64, char string) (retract bool) {
	if c.down[keycode] {
		return keymap.Printable(keycode)
	}
	c.down[keycode] = true

	letter, ok := keymap.SpecialName(keycode)
	if !ok {
		if char != "" && keymap.Printable(keycode) {
			letter = char
		} else {
			letter = keymap.Decode(keycode)
		}
	}
	c.unresolved = append(c.unresolved, pending{keycode: keycode, downTime: t, letter: letter})
	return false
}

// Resolve feeds a character-resolution signal (fires only for printable
// input, zero or one times per press). The first unresolved entry whose
// down time lies within ResolveWindow before t takes the resolved char;
// no match leaves the press-time letter guess standing
func (c *Correlator) Resolve(t int64, char string) {
	if char == "" {
		return
	}
	for i := range c.unresolved {
		dt := t - c.unresolved[i].downTime
		if dt >= 0 && dt <= ResolveWindow {
			c.unresolved[i].letter = char
			return
		}
	}
}

// Release feeds a key-up signal. The first unresolved entry with a matching
// keycode wins (FIFO, so fast re-presses of the same key pair up in order).
// A release with no matching press is silently dropped
func (c *Correlator) Release(keycode int, t int64) (Record, bool) {
	delete(c.down, keycode)
	for i := range c.unresolved {
		if c.unresolved[i].keycode != keycode {
			continue
		}
		p := c.unresolved[i]
		c.unresolved = append(c.unresolved[:i], c.unresolved[i+1:]...)
		if p.letter == "" {
			// should not happen: Press always assigns a provisional letter
			return Record{}, false
		}
		rec := Record{
			KeystrokeID: c.nextID,
			PressTime:   p.downTime,
			ReleaseTime: t,
			Keycode:     keycode,
			Letter:      p.letter,
		}
		c.nextID++
		return rec, true
	}
	return Record{}, false
}

// Reset clears all in-flight state and restarts the id counter.
// Called at every section boundary; unresolved entries are discarded,
// never emitted
func (c *Correlator) Reset() {
	c.down = make(map[int]bool)
	c.unresolved = c.unresolved[:0]
	c.nextID = 0
}

// Pending reports how many presses are awaiting release
func (c *Correlator) Pending() int { return len(c.unresolved) }
