package applier

import (
	"regexp"
	"strings"
)

// ControlChars matches characters that must never reach an argv entry.
var ControlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// IsSafeArgument reports whether value can be handed to an external command
// as a single argv entry. Commands are never run through a shell, so shell
// metacharacters are allowed; interface names like "Ethernet (2)" need them.
func IsSafeArgument(value string) bool {
	if value == "" {
		return false
	}
	return !ControlChars.MatchString(value)
}

// psQuote renders s as a single-quoted PowerShell string literal. PowerShell
// also treats the typographic single quotes as delimiters, so those are
// doubled too.
func psQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '‘', '’', '‚', '‛':
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}
