package locallog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func row(id int) KeystrokeRow {
	return KeystrokeRow{
		ParticipantID:    "alice_20250901_120000",
		TestSectionID:    "sec-1",
		Sentence:         "the quick brown fox",
		UserInput:        "the q",
		KeystrokeID:      id,
		PressTime:        int64(1000 + id*100),
		ReleaseTime:      int64(1050 + id*100),
		Letter:           "q",
		Keycode:          81,
		SessionTimestamp: "20250901_120000",
	}
}

func TestAppendKeystrokesWritesHeaderOnce(t *testing.T) {
	l := New(t.TempDir())
	if err := l.AppendKeystrokes([]KeystrokeRow{row(0), row(1)}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := l.AppendKeystrokes([]KeystrokeRow{row(2)}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	path := filepath.Join(l.Dir(), "alice_20250901_120000", "20250901_120000", "keystrokes.csv")
	records := readAll(t, path)
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][0] != "PARTICIPANT_ID" {
		t.Fatalf("missing header: %v", records[0])
	}
	if records[3][4] != "2" {
		t.Fatalf("append order broken: %v", records[3])
	}
}

func TestAppendIsAppendOnlyAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	if err := l.AppendKeystrokes([]KeystrokeRow{row(0)}); err != nil {
		t.Fatalf("run one: %v", err)
	}
	// a fresh Log over the same dir must not truncate prior rows
	l2 := New(dir)
	if err := l2.AppendKeystrokes([]KeystrokeRow{row(0)}); err != nil {
		t.Fatalf("run two: %v", err)
	}
	path := filepath.Join(dir, "alice_20250901_120000", "20250901_120000", "keystrokes.csv")
	records := readAll(t, path)
	if len(records) != 3 {
		t.Fatalf("both runs must be retained, got %d rows", len(records))
	}
}

func TestAppendSession(t *testing.T) {
	l := New(t.TempDir())
	err := l.AppendSession(SessionRow{
		ParticipantID:    "bob_20250901_130000",
		TestSectionID:    "sec-9",
		SentenceCount:    3,
		TotalKeystrokes:  120,
		AverageWPM:       52,
		SessionTimestamp: "20250901_130000",
	})
	if err != nil {
		t.Fatalf("append session: %v", err)
	}
	path := filepath.Join(l.Dir(), "bob_20250901_130000", "20250901_130000", "sessions.csv")
	records := readAll(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[1][4] != "52" {
		t.Fatalf("wrong wpm column: %v", records[1])
	}
}
