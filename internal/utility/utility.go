package utility

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RandomColorHex returns a #rrggbb colour with each component in 4..251.
func RandomColorHex() string {
	return fmt.Sprintf("#%02x%02x%02x", 4+rand.IntN(248), 4+rand.IntN(248), 4+rand.IntN(248))
}

var (
	bracketed   = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	featSuffix  = regexp.MustCompile(`\s(feat\.?|ft\.|featuring)\s.*$`)
	dashVariant = regexp.MustCompile(`\s-\s.*(remaster|live|version|edit|mix|mono|stereo).*$`)
)

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeAnswer reduces a title or guess to a comparable form.
func NormalizeAnswer(s string) string {
	s = strings.ToLower(stripMarks(s))
	s = bracketed.ReplaceAllString(s, " ")
	s = dashVariant.ReplaceAllString(s, "")
	s = featSuffix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", " and ")

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r), r == '-', r == '/':
			return ' '
		default:
			return -1
		}
	}, s)

	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimPrefix(s, "the ")
}

// MatchAnswer reports whether guess names answer once both are normalized.
func MatchAnswer(guess, answer string) bool {
	g := NormalizeAnswer(guess)
	return g != "" && g == NormalizeAnswer(answer)
}
