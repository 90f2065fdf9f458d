// Package keymap maps JavaScript keyCodes to letter identities
package keymap

import "strings"

// special is the fixed table of non-printing key names keyed by keyCode
// names follow the 136m-keystrokes dataset convention
var special = map[int]string{
	8:   "BKSP",
	9:   "TAB",
	13:  "ENTER",
	16:  "SHIFT",
	17:  "CTRL",
	18:  "ALT",
	20:  "CAPS",
	27:  "ESC",
	33:  "PGUP",
	34:  "PGDN",
	35:  "END",
	36:  "HOME",
	37:  "LEFT",
	38:  "UP",
	39:  "RIGHT",
	40:  "DOWN",
	45:  "INS",
	46:  "DEL",
	91:  "META",
	144: "NUMLOCK",
}

// controlNames are the non-printing names excluded from typed-character
// counts when computing word rates
var controlNames = map[string]struct{}{
	"SHIFT": {},
	"CTRL":  {},
	"ALT":   {},
	"CAPS":  {},
	"ESC":   {},
	"TAB":   {},
	"BKSP":  {},
}

// SpecialName returns the fixed name for a non-printing key
func SpecialName(code int) (string, bool) {
	name, ok := special[code]
	return name, ok
}

// Printable reports whether the keyCode falls in a character-producing range
// (digits, letters, space, numpad, and OEM punctuation)
func Printable(code int) bool {
	switch {
	case code == 32:
		return true
	case code >= 48 && code <= 57:
		return true
	case code >= 65 && code <= 90:
		return true
	case code >= 96 && code <= 111:
		return true
	case code >= 186 && code <= 222:
		return true
	}
	return false
}

// Decode derives a best-effort letter for a keyCode when no character event
// resolves it. Letter codes fold to lower case the way browsers echo them
func Decode(code int) string {
	if name, ok := special[code]; ok {
		return name
	}
	switch {
	case code >= 65 && code <= 90:
		return string(rune(code + 32))
	case code >= 96 && code <= 105: // numpad digits
		return string(rune(code - 48))
	}
	return strings.ToLower(string(rune(code)))
}

// IsControlName reports whether letter names a non-printing control key
func IsControlName(letter string) bool {
	_, ok := controlNames[letter]
	return ok
}
