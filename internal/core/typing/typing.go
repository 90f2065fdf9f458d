// Package typing derives speed and accuracy metrics from keystroke records.
// Pure functions over emitted records and the live target/typed text
package typing

import (
	"math"

	"keycap/internal/core/correlate"
	"keycap/internal/core/keymap"
)

// WordRate computes words-per-minute over the ordered records of a section
// using the 5-characters-per-word convention.
//
// elapsed spans first press to last release; typed counts records whose
// letter is not a non-printing control name. Zero when either is empty
func WordRate(records []correlate.Record) int {
	if len(records) == 0 {
		return 0
	}
	elapsed := records[len(records)-1].ReleaseTime - records[0].PressTime
	typed := TypedCount(records)
	if elapsed <= 0 || typed == 0 {
		return 0
	}
	perChar := float64(elapsed) / float64(typed)
	return int(math.Round(60000 / (perChar * 5)))
}

// TypedCount counts character-producing records (control keys excluded)
func TypedCount(records []correlate.Record) int {
	n := 0
	for _, r := range records {
		if !keymap.IsControlName(r.Letter) {
			n++
		}
	}
	return n
}

// MismatchPercent compares typed text against the target sentence: positions
// where they diverge plus the length difference, over the longer length,
// as a percentage. Zero when both are empty
func MismatchPercent(target, typed string) float64 {
	tr := []rune(target)
	yr := []rune(typed)
	longest := len(tr)
	if len(yr) > longest {
		longest = len(yr)
	}
	if longest == 0 {
		return 0
	}
	shortest := len(tr)
	if len(yr) < shortest {
		shortest = len(yr)
	}
	mismatches := longest - shortest
	for i := 0; i < shortest; i++ {
		if tr[i] != yr[i] {
			mismatches++
		}
	}
	return float64(mismatches) / float64(longest) * 100
}
