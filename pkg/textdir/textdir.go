// Package textdir classifies text as left-to-right or right-to-left so that
// editors can pick the writing direction of a note per field.
package textdir

// Direction is a writing direction.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

const (
	arabicFirst = '\u0600'
	arabicLast  = '\u06FF'
)

// HasArabic reports whether s contains any rune of the Arabic block.
func HasArabic(s string) bool {
	for _, r := range s {
		if r >= arabicFirst && r <= arabicLast {
			return true
		}
	}
	return false
}

// Detect returns RTL when s contains Arabic script and LTR otherwise.
func Detect(s string) Direction {
	if HasArabic(s) {
		return RTL
	}
	return LTR
}

// Align maps the detected direction to a text alignment.
func Align(s string) string {
	if Detect(s) == RTL {
		return "right"
	}
	return "left"
}
