package lyrics_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"lyricsync/internal/lyrics"
	"lyricsync/internal/romanize"
)

const vocab = "aiueontsrmkldghybpwcvjzfqx'"

// fixedEdges returns canned edges for known inputs and falls back to Kana.
type fixedEdges map[string][]romanize.Edge

func (f fixedEdges) Romanize(text string) ([]romanize.Edge, error) {
	if edges, ok := f[text]; ok {
		return edges, nil
	}
	return romanize.Kana{}.Romanize(text)
}

func TestParseAnnotations(t *testing.T) {
	text := lyrics.Parse("君の[名前](なまえ)を[呼ぶ](よぶ)", nil)
	want := []lyrics.Element{
		lyrics.PlainElement("君の"),
		lyrics.AnnotationElement("名前", "なまえ"),
		lyrics.PlainElement("を"),
		lyrics.AnnotationElement("呼ぶ", "よぶ"),
	}
	if got := text.Elements(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected elements:\n got %#v\nwant %#v", got, want)
	}
}

func TestParseMalformedDegradesToPlain(t *testing.T) {
	for _, in := range []string{"[走る](", "[](はしる)", "[走る]はしる", "(はしる)[走る]"} {
		text := lyrics.Parse(in, nil)
		elems := text.Elements()
		if len(elems) != 1 || elems[0].Kind != lyrics.KindPlain || elems[0].Plain != in {
			t.Fatalf("Parse(%q) = %#v, want single plain element", in, elems)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	faker := gofakeit.New(20240611)
	for i := 0; i < 200; i++ {
		var b strings.Builder
		for j, n := 0, faker.Number(1, 6); j < n; j++ {
			if faker.Bool() {
				b.WriteString(lyrics.Annotation{Base: faker.Word(), Reading: faker.Word()}.String())
			} else {
				b.WriteString(faker.Sentence(faker.Number(1, 4)))
			}
			if faker.Number(0, 3) == 0 {
				b.WriteString("\n")
			}
		}
		src := b.String()
		parsed := lyrics.Parse(src, nil)
		if parsed.String() != src {
			t.Fatalf("String() changed text:\n got %q\nwant %q", parsed.String(), src)
		}
		again := lyrics.Parse(parsed.String(), nil)
		if !again.Equal(parsed) {
			t.Fatalf("round trip mismatch for %q", src)
		}
	}
}

func TestNewMergesPlainElements(t *testing.T) {
	a := lyrics.New(nil, lyrics.PlainElement("ab"), lyrics.PlainElement(""), lyrics.PlainElement("cd"))
	b := lyrics.Parse("abcd", nil)
	if !a.Equal(b) {
		t.Fatalf("expected merged plain elements, got %#v", a.Elements())
	}
}

func TestLines(t *testing.T) {
	text := lyrics.Parse("\n[走る](はしる)よ\r\n\n  \n君[と](と)\nいっしょ\n", nil)
	lines := text.Lines()
	got := make([]string, 0, len(lines))
	for _, l := range lines {
		got = append(got, l.String())
	}
	want := []string{"[走る](はしる)よ", "君[と](と)", "いっしょ"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	if lines[0].Elements()[0].Kind != lyrics.KindAnnotation {
		t.Fatal("annotation should stay whole at line start")
	}
}

func TestLinesNeverSplitAnnotation(t *testing.T) {
	text := lyrics.New(nil, lyrics.AnnotationElement("一\n二", "いちに"))
	lines := text.Lines()
	if len(lines) != 1 || lines[0].Elements()[0].Annotation.Base != "一\n二" {
		t.Fatalf("annotation was split: %#v", lines)
	}
}

func TestSyllablesAnnotation(t *testing.T) {
	r := fixedEdges{"はしる": {{Start: 0, End: 2, Text: "ha"}, {Start: 2, End: 3, Text: "shi"}, {Start: 3, End: 4, Text: "ru"}}}
	// はしる has three runes; the canned edges cover four, which must be rejected.
	if _, err := lyrics.Parse("[走る](はしる)", r).Syllables(); !errors.Is(err, romanize.ErrInvalidEdges) {
		t.Fatalf("expected invalid edges, got %v", err)
	}

	r = fixedEdges{"はしる": {{Start: 0, End: 1, Text: "ha"}, {Start: 1, End: 2, Text: "shi"}, {Start: 2, End: 3, Text: "ru"}}}
	got, err := lyrics.Parse("[走る](はしる)", r).Syllables()
	if err != nil {
		t.Fatalf("Syllables: %v", err)
	}
	want := []lyrics.Syllable{
		{Kana: "は", Kanji: "走る", Roman: "ha"},
		{Kana: "し", Kanji: "#", Roman: "shi"},
		{Kana: "る", Kanji: "#", Roman: "ru"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Syllables() = %#v, want %#v", got, want)
	}
	if got[0].String() != "走る|は" || !got[1].IsContinuation() {
		t.Fatalf("unexpected syllable rendering: %q", got[0].String())
	}
}

func TestSyllablesCoverText(t *testing.T) {
	text := lyrics.Parse("君の[名前](なまえ)を よんで、I love you", nil)
	syllables, err := text.Syllables()
	if err != nil {
		t.Fatalf("Syllables: %v", err)
	}
	var kana, roman strings.Builder
	for _, s := range syllables {
		kana.WriteString(s.Kana)
		roman.WriteString(s.Roman)
	}
	if kana.String() != text.Plain() {
		t.Fatalf("kana coverage %q != plain %q", kana.String(), text.Plain())
	}
	romanized, err := text.Romanized()
	if err != nil {
		t.Fatalf("Romanized: %v", err)
	}
	if roman.String() != strings.Join(romanized, "") {
		t.Fatalf("roman coverage %q != %q", roman.String(), strings.Join(romanized, ""))
	}
}

func TestSyllablesCached(t *testing.T) {
	calls := 0
	r := romanize.RomanizerFunc(func(text string) ([]romanize.Edge, error) {
		calls++
		return romanize.Kana{}.Romanize(text)
	})
	text := lyrics.Parse("[空](そら)", r)
	first, _ := text.Syllables()
	first[0].Kana = "changed"
	second, _ := text.Syllables()
	if calls != 1 {
		t.Fatalf("expected romanizer called once, got %d", calls)
	}
	if second[0].Kana != "そ" {
		t.Fatalf("cached syllables were mutated: %#v", second)
	}
}

func TestSyllablesRomanizerError(t *testing.T) {
	boom := errors.New("boom")
	text := lyrics.Parse("あ", romanize.RomanizerFunc(func(string) ([]romanize.Edge, error) { return nil, boom }))
	if _, err := text.Syllables(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := text.Transcript(vocab); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestTranscript(t *testing.T) {
	text := lyrics.Parse("[走る](はしる)よ\nＬｏｖｅ、きみ", nil)
	got, err := text.Transcript(vocab)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	want := []string{"hashiruyo", "love", "kimi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Transcript() = %q, want %q", got, want)
	}
}

func TestDecomposedInputIsComposed(t *testing.T) {
	text := lyrics.Parse("cafe\u0301 か\u3099[歌](うた)", nil)
	want := []lyrics.Element{
		lyrics.PlainElement("caf\u00e9 \u304c"),
		lyrics.AnnotationElement("歌", "うた"),
	}
	if got := text.Elements(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected elements:\n got %#v\nwant %#v", got, want)
	}

	syllables, err := text.Syllables()
	if err != nil {
		t.Fatalf("Syllables: %v", err)
	}
	var romans []string
	for _, s := range syllables {
		romans = append(romans, s.Roman)
	}
	if want := []string{"caf", "\u00e9", " ", "ga", "u", "ta"}; !reflect.DeepEqual(romans, want) {
		t.Fatalf("romans = %q, want %q", romans, want)
	}

	got, err := text.Transcript(vocab)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if want := []string{"cafe", "gauta"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Transcript() = %q, want %q", got, want)
	}
}

func TestTranscriptMatchesSyllables(t *testing.T) {
	inputs := []string{
		"cafe\u0301 desu",
		"[走る](はしる)よ、ｋｉｍｉ！ to",
		"Don’t stop-me now",
		"がっこう ー ラーメン",
	}
	for _, in := range inputs {
		text := lyrics.Parse(in, nil)
		words, err := text.Transcript(vocab)
		if err != nil {
			t.Fatalf("Transcript(%q): %v", in, err)
		}
		syllables, err := text.Syllables()
		if err != nil {
			t.Fatalf("Syllables(%q): %v", in, err)
		}
		var fromSyllables strings.Builder
		for _, s := range syllables {
			fromSyllables.WriteString(strings.ReplaceAll(lyrics.NormalizeRoman(s.Roman, vocab), " ", ""))
		}
		if joined := strings.Join(words, ""); joined != fromSyllables.String() {
			t.Errorf("%q: transcript %q does not match syllables %q", in, joined, fromSyllables.String())
		}
	}
}

func TestNormalizeRoman(t *testing.T) {
	tests := map[string]string{
		"Don’t  Stop":   "don't stop",
		"  ha-shi  ":    "ha shi",
		"、":             "",
		"ＡＢＣ":           "abc",
		"Cafe\u0301":     "cafe",
		"one\n\ntwo 3 4": "one two",
	}
	for in, want := range tests {
		if got := lyrics.NormalizeRoman(in, vocab); got != want {
			t.Errorf("NormalizeRoman(%q) = %q, want %q", in, got, want)
		}
	}
}
