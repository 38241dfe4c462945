// Package textnorm canonicalizes strings for matching titles and names
// across data sources that encode the same text differently.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiMarks replaces visually-similar quote and dash code points with their
// ASCII equivalents. This has to happen before NFKD decomposition, because
// decomposition can change how these marks compare.
var asciiMarks = strings.NewReplacer(
	"‘", "'", // LEFT SINGLE QUOTATION MARK
	"’", "'", // RIGHT SINGLE QUOTATION MARK
	"“", `"`, // LEFT DOUBLE QUOTATION MARK
	"”", `"`, // RIGHT DOUBLE QUOTATION MARK
	"«", `"`, // LEFT-POINTING DOUBLE ANGLE QUOTATION MARK «
	"»", `"`, // RIGHT-POINTING DOUBLE ANGLE QUOTATION MARK »
	"–", "-", // EN DASH
	"—", "-", // EM DASH
	"ʼ", "'", // MODIFIER LETTER APOSTROPHE
	"ʹ", "'", // MODIFIER LETTER PRIME
	"′", "'", // PRIME
)

// stripAccents decomposes with NFKD and drops combining marks, so "é" and "e"
// compare equal.
var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fold normalizes text for matching: quote/dash unification, accent
// stripping, lowercasing, whitespace collapsing, and trailing punctuation
// removal. It is deterministic and idempotent.
func Fold(text string) string {
	text = asciiMarks.Replace(text)

	folded, _, err := transform.String(stripAccents, text)
	if err == nil {
		text = folded
	}

	text = strings.ToLower(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	// Trailing punctuation and any whitespace it was padded with, in one
	// pass, so folding an already-folded string is a no-op.
	text = strings.TrimRight(text, ".,;:! ")
	return text
}

// CollapseSpaces trims a cell value and collapses internal whitespace runs to
// a single space. Applied to every string cell on load.
func CollapseSpaces(cell string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(cell), " ")
}
