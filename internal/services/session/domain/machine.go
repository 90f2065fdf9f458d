package domain

import (
	perr "keycap/internal/platform/errors"
)

// State is a phase of the capture lifecycle on the client
type State uint8

const (
	// StateNoConsent is the initial phase, before the participant agrees
	StateNoConsent State = iota

	// StateAwaitingConfig means consent is recorded but the session is not
	// yet configured with a question count
	StateAwaitingConfig

	// StateSessionActive means identities are allocated and the next
	// section can begin
	StateSessionActive

	// StateSectionActive means typing is enabled against a prompt
	StateSectionActive

	// StateSectionComplete means the current prompt was submitted and its
	// tail flush is done
	StateSectionComplete

	// StateSessionComplete is terminal; re-entry requires a full reset
	StateSessionComplete
)

func (s State) String() string {
	switch s {
	case StateNoConsent:
		return "no_consent"
	case StateAwaitingConfig:
		return "awaiting_config"
	case StateSessionActive:
		return "session_active"
	case StateSectionActive:
		return "section_active"
	case StateSectionComplete:
		return "section_complete"
	case StateSessionComplete:
		return "session_complete"
	default:
		return "unknown"
	}
}

// Machine tracks the capture lifecycle. Transitions out of order return a
// conflict error and leave the state untouched. Capture is permitted only
// while the machine sits in StateSectionActive
type Machine struct {
	state     State
	questions int
	completed int
}

// NewMachine starts at StateNoConsent
func NewMachine() *Machine { return &Machine{state: StateNoConsent} }

// State reports the current phase
func (m *Machine) State() State { return m.state }

// Completed reports how many sections have finished
func (m *Machine) Completed() int { return m.completed }

// CaptureEnabled reports whether keystroke events may be recorded
func (m *Machine) CaptureEnabled() bool { return m.state == StateSectionActive }

// Consent records participant agreement
func (m *Machine) Consent() error {
	if m.state != StateNoConsent {
		return perr.Conflictf("consent not expected in state %s", m.state)
	}
	m.state = StateAwaitingConfig
	return nil
}

// Configure validates the requested question count against the prompt pool
// and activates the session
func (m *Machine) Configure(questions, poolSize int) error {
	if m.state != StateAwaitingConfig {
		return perr.Conflictf("configure not expected in state %s", m.state)
	}
	if questions < 1 || questions > poolSize {
		return perr.InvalidArgf("question count %d outside 1..%d", questions, poolSize)
	}
	m.questions = questions
	m.completed = 0
	m.state = StateSessionActive
	return nil
}

// BeginSection opens the next prompt for typing
func (m *Machine) BeginSection() error {
	if m.state != StateSessionActive && m.state != StateSectionComplete {
		return perr.Conflictf("section cannot begin in state %s", m.state)
	}
	m.state = StateSectionActive
	return nil
}

// CompleteSection closes the active prompt. It reports whether more
// prompts remain; when none do the machine lands in StateSessionComplete
func (m *Machine) CompleteSection() (more bool, err error) {
	if m.state != StateSectionActive {
		return false, perr.Conflictf("no active section to complete in state %s", m.state)
	}
	m.completed++
	if m.completed >= m.questions {
		m.state = StateSessionComplete
		return false, nil
	}
	m.state = StateSectionComplete
	return true, nil
}

// End finalizes the session early from any non-terminal configured state
func (m *Machine) End() error {
	switch m.state {
	case StateSessionActive, StateSectionActive, StateSectionComplete:
		m.state = StateSessionComplete
		return nil
	default:
		return perr.Conflictf("session cannot end in state %s", m.state)
	}
}

// Reset wipes all session context back to StateAwaitingConfig. A completed
// machine must pass through here before it can run again
func (m *Machine) Reset() {
	m.state = StateAwaitingConfig
	m.questions = 0
	m.completed = 0
}
