package domain

import "testing"

func advance(t *testing.T, m *Machine, questions int) {
	t.Helper()
	if err := m.Consent(); err != nil {
		t.Fatalf("Consent: %v", err)
	}
	if err := m.Configure(questions, 50); err != nil {
		t.Fatalf("Configure: %v", err)
	}
}

func TestMachineHappyPath(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	if m.State() != StateNoConsent {
		t.Fatalf("initial state = %s, want no_consent", m.State())
	}
	advance(t, m, 2)

	if err := m.BeginSection(); err != nil {
		t.Fatalf("BeginSection: %v", err)
	}
	if !m.CaptureEnabled() {
		t.Fatalf("capture should be enabled while a section is active")
	}
	more, err := m.CompleteSection()
	if err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if !more {
		t.Fatalf("one of two sections done, want more=true")
	}
	if m.State() != StateSectionComplete {
		t.Fatalf("state = %s, want section_complete", m.State())
	}

	if err := m.BeginSection(); err != nil {
		t.Fatalf("BeginSection second: %v", err)
	}
	more, err = m.CompleteSection()
	if err != nil {
		t.Fatalf("CompleteSection second: %v", err)
	}
	if more {
		t.Fatalf("all sections done, want more=false")
	}
	if m.State() != StateSessionComplete {
		t.Fatalf("state = %s, want session_complete", m.State())
	}
}

func TestMachineRejectsOutOfOrderTransitions(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	if err := m.BeginSection(); err == nil {
		t.Fatalf("BeginSection before consent should fail")
	}
	if _, err := m.CompleteSection(); err == nil {
		t.Fatalf("CompleteSection before consent should fail")
	}
	if m.State() != StateNoConsent {
		t.Fatalf("rejected transitions must not move the state, got %s", m.State())
	}

	if err := m.Consent(); err != nil {
		t.Fatalf("Consent: %v", err)
	}
	if err := m.Consent(); err == nil {
		t.Fatalf("double consent should fail")
	}
}

func TestMachineConfigureBounds(t *testing.T) {
	t.Parallel()

	for _, questions := range []int{0, -1, 51} {
		m := NewMachine()
		if err := m.Consent(); err != nil {
			t.Fatalf("Consent: %v", err)
		}
		if err := m.Configure(questions, 50); err == nil {
			t.Fatalf("Configure(%d) should fail", questions)
		}
		if m.State() != StateAwaitingConfig {
			t.Fatalf("failed configure must not activate, got %s", m.State())
		}
	}
}

func TestMachineCaptureDisabledOutsideSection(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	advance(t, m, 1)
	if m.CaptureEnabled() {
		t.Fatalf("capture must be disabled before a section begins")
	}
	if err := m.BeginSection(); err != nil {
		t.Fatalf("BeginSection: %v", err)
	}
	if _, err := m.CompleteSection(); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if m.CaptureEnabled() {
		t.Fatalf("capture must be disabled after the session completes")
	}
}

func TestMachineTerminalRequiresReset(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	advance(t, m, 1)
	if err := m.BeginSection(); err != nil {
		t.Fatalf("BeginSection: %v", err)
	}
	if _, err := m.CompleteSection(); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}

	if err := m.BeginSection(); err == nil {
		t.Fatalf("terminal machine should reject new sections")
	}
	if err := m.End(); err == nil {
		t.Fatalf("terminal machine should reject End")
	}

	m.Reset()
	if m.State() != StateAwaitingConfig {
		t.Fatalf("Reset should land in awaiting_config, got %s", m.State())
	}
	if err := m.Configure(1, 50); err != nil {
		t.Fatalf("Configure after reset: %v", err)
	}
	if m.Completed() != 0 {
		t.Fatalf("Reset must clear the completed count")
	}
}

func TestMachineEarlyEnd(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	advance(t, m, 5)
	if err := m.BeginSection(); err != nil {
		t.Fatalf("BeginSection: %v", err)
	}
	if err := m.End(); err != nil {
		t.Fatalf("End mid-section: %v", err)
	}
	if m.State() != StateSessionComplete {
		t.Fatalf("state = %s, want session_complete", m.State())
	}
}
