package lyrics

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContinuationMarker fills Kanji on every syllable of an annotation after the first.
const ContinuationMarker = "#"

// Syllable is the smallest timed unit of a lyric.
type Syllable struct {
	Kana  string
	Kanji string
	Roman string
}

// IsSeparator reports whether the syllable is a word break with nothing to time.
func (s Syllable) IsSeparator() bool {
	return strings.TrimSpace(s.Roman) == ""
}

// IsContinuation reports whether the syllable continues an annotation.
func (s Syllable) IsContinuation() bool {
	return s.Kanji == ContinuationMarker
}

// String renders "kanji|kana" for annotated syllables and the kana otherwise.
func (s Syllable) String() string {
	if s.Kanji != "" {
		return s.Kanji + "|" + s.Kana
	}
	return s.Kana
}

// NormalizeRoman folds romanized text onto an alignment vocabulary. Compatibility
// forms and diacritics are folded and letters lowercased. Typographic
// apostrophes are straightened, anything outside vocab becomes a space and
// whitespace is collapsed.
func NormalizeRoman(s, vocab string) string {
	s = strings.ToLower(foldMarks(s))
	s = strings.ReplaceAll(s, "’", "'")
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(vocab, r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// foldMarks decomposes s with compatibility mappings and drops nonspacing
// marks, so "café" and "ｃａｆｅ" both become "cafe".
func foldMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return norm.NFKC.String(s)
	}
	return out
}
