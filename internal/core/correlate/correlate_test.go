package correlate

import "testing"

func TestPressReleaseEmitsOneRecord(t *testing.T) {
	c := New()
	if retract := c.Press(65, 1000, "a"); retract {
		t.Fatalf("first press must not ask for retraction")
	}
	rec, ok := c.Release(65, 1120)
	if !ok {
		t.Fatalf("expected a record on release")
	}
	if rec.Keycode != 65 || rec.PressTime != 1000 || rec.ReleaseTime != 1120 {
		t.Fatalf("wrong record: %+v", rec)
	}
	if rec.Letter != "a" {
		t.Fatalf("expected letter a, got %q", rec.Letter)
	}
	if rec.KeystrokeID != 0 {
		t.Fatalf("first record must have id 0, got %d", rec.KeystrokeID)
	}
}

func TestRepeatPressNeverEmits(t *testing.T) {
	c := New()
	c.Press(65, 1000, "a")
	if retract := c.Press(65, 1030, "a"); !retract {
		t.Fatalf("repeat of a printable key should hint retraction")
	}
	if c.Pending() != 1 {
		t.Fatalf("repeat must not create a second unresolved entry, have %d", c.Pending())
	}
	if _, ok := c.Release(65, 1100); !ok {
		t.Fatalf("expected exactly one record for keycode 65")
	}
	if _, ok := c.Release(65, 1110); ok {
		t.Fatalf("second release must not emit")
	}
}

func TestRepeatOfControlKeyDoesNotRetract(t *testing.T) {
	c := New()
	c.Press(16, 1000, "")
	if retract := c.Press(16, 1030, ""); retract {
		t.Fatalf("SHIFT repeat must not retract echoed text")
	}
}

func TestResolveOverridesProvisionalLetter(t *testing.T) {
	c := New()
	c.Press(65, 1000, "")
	c.Resolve(1010, "A")
	rec, ok := c.Release(65, 1100)
	if !ok || rec.Letter != "A" {
		t.Fatalf("expected resolved letter A, got %+v ok=%v", rec, ok)
	}
}

func TestResolveOutsideWindowIsIgnored(t *testing.T) {
	c := New()
	c.Press(65, 1000, "")
	c.Resolve(1000+ResolveWindow+1, "A")
	rec, _ := c.Release(65, 1100)
	if rec.Letter != "a" {
		t.Fatalf("late resolve must leave press-time guess, got %q", rec.Letter)
	}
}

func TestFIFOMatchOnFastRepress(t *testing.T) {
	c := New()
	c.Press(65, 1000, "a")
	// release arrives after the second press of the same key
	c.Release(65, 1050)
	c.Press(65, 1060, "a")
	rec, ok := c.Release(65, 1110)
	if !ok {
		t.Fatalf("expected second record")
	}
	if rec.PressTime != 1060 {
		t.Fatalf("FIFO match broke: got press %d", rec.PressTime)
	}
}

func TestOverlappingKeysEmitInReleaseOrder(t *testing.T) {
	c := New()
	c.Press(65, 1000, "a")
	c.Press(66, 1010, "b")
	first, ok := c.Release(66, 1020)
	if !ok || first.Letter != "b" {
		t.Fatalf("expected b released first, got %+v", first)
	}
	second, ok := c.Release(65, 1030)
	if !ok || second.Letter != "a" {
		t.Fatalf("expected a second, got %+v", second)
	}
	if first.KeystrokeID != 0 || second.KeystrokeID != 1 {
		t.Fatalf("ids must follow emission order: %d, %d", first.KeystrokeID, second.KeystrokeID)
	}
}

func TestUnmatchedReleaseIsDropped(t *testing.T) {
	c := New()
	if _, ok := c.Release(65, 1000); ok {
		t.Fatalf("release with no press must not emit")
	}
}

func TestEmittedCountMatchesPairedReleases(t *testing.T) {
	c := New()
	emitted := 0
	codes := []int{65, 66, 16, 67, 65}
	for i, code := range codes {
		c.Press(code, int64(1000+i*10), "")
	}
	// the trailing 65 is a hardware repeat: no unresolved entry, so only
	// four presses can ever pair up
	const paired = 4

	// one stray release plus releases for all pressed codes
	if _, ok := c.Release(99, 2000); ok {
		emitted++
	}
	for i, code := range codes {
		if _, ok := c.Release(code, int64(2000+i*10)); ok {
			emitted++
		}
	}
	if emitted != paired {
		t.Fatalf("expected %d records, got %d", paired, emitted)
	}
}

func TestResetDiscardsUnresolvedAndRestartsIDs(t *testing.T) {
	c := New()
	c.Press(65, 1000, "a")
	c.Press(66, 1010, "b")
	c.Release(65, 1020)
	c.Reset()
	if c.Pending() != 0 {
		t.Fatalf("reset must discard unresolved entries")
	}
	if _, ok := c.Release(66, 1030); ok {
		t.Fatalf("entries from before reset must never emit")
	}
	c.Press(67, 2000, "c")
	rec, _ := c.Release(67, 2050)
	if rec.KeystrokeID != 0 {
		t.Fatalf("id counter must restart at 0 per section, got %d", rec.KeystrokeID)
	}
}

func TestSpecialKeyLetters(t *testing.T) {
	c := New()
	c.Press(8, 1000, "")
	rec, ok := c.Release(8, 1010)
	if !ok || rec.Letter != "BKSP" {
		t.Fatalf("expected BKSP, got %+v", rec)
	}
}
