package engine

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD, drops combining marks, recomposes.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold maps typographic quote, dash and space variants to their ASCII
// equivalents so titles exported from different platforms compare equal.
var asciiFold = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "′", "'",
	"“", `"`, "”", `"`, "„", `"`, "″", `"`,
	"–", "-", "—", "-", "―", "-", "−", "-",
	" ", " ", " ", " ", " ", " ",
	"…", "...",
	"®", "", "™", "", "©", "",
)

// maxUnescapePasses bounds entity decoding: exports run through multiple
// systems arrive double- or triple-escaped, and idempotence requires decoding
// to a fixed point rather than peeling one layer per call.
const maxUnescapePasses = 4

// Normalize canonicalizes free text for comparison: lowercase, HTML entities
// decoded, diacritics stripped, punctuation variants folded to ASCII, and
// whitespace collapsed. It is pure, deterministic and idempotent.
func Normalize(text string) string {
	s := text
	for i := 0; i < maxUnescapePasses; i++ {
		unescaped := html.UnescapeString(s)
		if unescaped == s {
			break
		}
		s = unescaped
	}
	s = strings.ToLower(s)
	s = asciiFold.Replace(s)
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}
