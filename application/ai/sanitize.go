package ai

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	zeroWidth     = strings.NewReplacer("\u200B", "", "\u200C", "", "\u200D", "", "\uFEFF", "")
	repeatedSpace = regexp.MustCompile(` {2,}`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// Sanitize prepares user text for a model prompt. It removes control
// characters other than tab, newline and carriage return, drops zero-width
// characters, normalizes to NFC, collapses runs of spaces and of three or
// more newlines, and trims the result. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	// Removal can bring a base letter next to its combining mark, so it must
	// happen before composition.
	text = zeroWidth.Replace(text)
	text = norm.NFC.String(text)
	text = repeatedSpace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
