package romanize

import (
	"strings"
	"unicode"
)

// Kana romanizes hiragana and katakana with modified Hepburn.
//
// Each mora becomes one edge; a sokuon is its own edge carrying the doubled
// consonant of the following mora, and the prolonged sound mark repeats the
// preceding vowel. Runs of ASCII letters and apostrophes form a single
// edge, runs of whitespace become a single " " edge, and any other rune is
// passed through unchanged.
type Kana struct{}

// Romanize implements Romanizer.
func (Kana) Romanize(text string) ([]Edge, error) {
	runes := []rune(text)
	edges := make([]Edge, 0, len(runes))
	lastVowel := byte(0)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			edges = append(edges, Edge{Start: i, End: j, Text: " "})
			lastVowel = 0
			i = j

		case isWordRune(r):
			j := i + 1
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			edges = append(edges, Edge{Start: i, End: j, Text: string(runes[i:j])})
			lastVowel = 0
			i = j

		case r == sokuonHiragana || r == sokuonKatakana:
			roman := string(r)
			if next, _ := moraAt(runes, i+1); next != "" {
				roman = geminate(next)
			}
			edges = append(edges, Edge{Start: i, End: i + 1, Text: roman})
			i++

		case r == prolongedMark:
			roman := string(r)
			if lastVowel != 0 {
				roman = string(lastVowel)
			}
			edges = append(edges, Edge{Start: i, End: i + 1, Text: roman})
			i++

		default:
			if roman, width := moraAt(runes, i); roman != "" {
				edges = append(edges, Edge{Start: i, End: i + width, Text: roman})
				lastVowel = finalVowel(roman)
				i += width
				continue
			}
			edges = append(edges, Edge{Start: i, End: i + 1, Text: string(r)})
			lastVowel = 0
			i++
		}
	}
	return edges, nil
}

// moraAt returns the romanization of the mora starting at runes[i] and its width in runes.
func moraAt(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", 0
	}
	first := foldKatakana(runes[i])
	if i+1 < len(runes) {
		second := foldKatakana(runes[i+1])
		if isSmallKana(second) {
			if roman, ok := digraphs[string([]rune{first, second})]; ok {
				return roman, 2
			}
		}
	}
	if roman, ok := monographs[first]; ok {
		return roman, 1
	}
	return "", 0
}

func geminate(next string) string {
	if strings.HasPrefix(next, "ch") {
		return "t"
	}
	switch next[0] {
	case 'a', 'i', 'u', 'e', 'o', 'n':
		return "'"
	}
	return next[:1]
}

func finalVowel(roman string) byte {
	last := roman[len(roman)-1]
	switch last {
	case 'a', 'i', 'u', 'e', 'o':
		return last
	}
	return 0
}

func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || r == '\'')
}
