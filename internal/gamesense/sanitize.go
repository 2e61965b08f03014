package gamesense

import "strings"

// EventID is a protocol identifier: uppercase A-Z, 0-9, hyphen and underscore.
type EventID string

// Replacements run in order; later ones see the result of earlier ones.
var (
	separatorReplacements = [][2]string{
		{")", "-"},
		{"(", "-"},
		{": ", "-"},
		{" ", "_"},
	}
	deletions = []string{"_#", "[", "]", ".", "#"}
)

// Sanitize turns a free-form sensor name into an EventID.
//
//	Sanitize("GPU [Core #1]: Temp (C)") == "GPU_CORE1-TEMP-C"
func Sanitize(raw string) EventID {
	s := raw
	for _, r := range separatorReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	for _, d := range deletions {
		s = strings.ReplaceAll(s, d, "")
	}
	s = strings.ToUpper(s)

	return EventID(normalize(s))
}

// normalize maps anything outside [A-Z0-9_-] to '_', folds separator runs
// into one ('-' wins over '_') and trims separators at both ends.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pending := byte(0)
	for _, r := range s {
		var c byte
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pending != 0 && b.Len() > 0 {
				b.WriteByte(pending)
			}
			pending = 0
			b.WriteRune(r)
			continue
		case r == '-':
			c = '-'
		default:
			c = '_'
		}
		if pending != '-' {
			pending = c
		}
	}

	return b.String()
}

// IsValid reports whether id is non-empty and only uses the protocol charset.
func (id EventID) IsValid() bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}

	return true
}

func (id EventID) String() string {
	return string(id)
}
