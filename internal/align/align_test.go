package align_test

import (
	"errors"
	"math"
	"testing"

	"lyricsync/internal/align"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/services"
)

func syl(kana, kanji, roman string) lyrics.Syllable {
	return lyrics.Syllable{Kana: kana, Kanji: kanji, Roman: roman}
}

func spansFor(word string, start, step int) align.Chunk {
	chunk := make(align.Chunk, 0, len(word))
	for i, r := range word {
		chunk = append(chunk, align.TokenSpan{Token: string(r), Start: start + i*step, End: start + (i+1)*step})
	}
	return chunk
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAlignTimesSyllables(t *testing.T) {
	// ha 0-10, shi 10-18, ru 18-25 at ratio 1 and 100 Hz.
	chunk := align.Chunk{
		{Token: "h", Start: 0, End: 5}, {Token: "a", Start: 5, End: 10},
		{Token: "s", Start: 10, End: 13}, {Token: "h", Start: 13, End: 15}, {Token: "i", Start: 15, End: 18},
		{Token: "r", Start: 18, End: 21}, {Token: "u", Start: 21, End: 25},
	}
	lines := [][]lyrics.Syllable{{syl("は", "走る", "ha"), syl("し", "#", "shi"), syl("る", "#", "ru")}}

	got, err := align.Aligner{FrameRatio: 1, SampleRate: 100}.Align(lines, []align.Chunk{chunk})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("unexpected shape: %#v", got)
	}
	want := [][2]float64{{0, 0.10}, {0.10, 0.18}, {0.18, 0.25}}
	for i, item := range got[0] {
		if item.IsSeparator() {
			t.Fatalf("item %d is a separator", i)
		}
		if !approx(item.Syllable.StartS, want[i][0]) || !approx(item.Syllable.EndS, want[i][1]) {
			t.Fatalf("syllable %d timed %v-%v, want %v", i, item.Syllable.StartS, item.Syllable.EndS, want[i])
		}
	}
	if got[0][0].Syllable.Kanji != "走る" {
		t.Fatalf("syllable data lost: %#v", got[0][0])
	}
}

func TestAlignSeparatorsAndZeroLength(t *testing.T) {
	lines := [][]lyrics.Syllable{
		{syl("あ", "", "a"), syl(" ", "", " "), syl("、", "", "、"), syl("い", "", "i"), syl(" ", "", " ")},
		{syl("!", "", "!"), syl("う", "", "u")},
	}
	chunks := []align.Chunk{spansFor("a", 0, 4), spansFor("i", 10, 4), spansFor("u", 20, 4)}

	got, err := align.Aligner{FrameRatio: 2, SampleRate: 10}.Align(lines, chunks)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	first := got[0]
	if len(first) != 4 {
		t.Fatalf("trailing separator should be stripped: %v", first)
	}
	if !first[1].IsSeparator() {
		t.Fatalf("expected separator at index 1: %#v", first[1])
	}
	comma := first[2].Syllable
	if !approx(comma.StartS, 0.8) || !approx(comma.EndS, 0.8) {
		t.Fatalf("untimeable syllable should anchor to previous end: %v-%v", comma.StartS, comma.EndS)
	}
	bang := got[1][0].Syllable
	if !approx(bang.StartS, first[3].Syllable.EndS) || bang.StartS != bang.EndS {
		t.Fatalf("line-initial untimeable syllable should anchor to previous line end: %#v", bang)
	}
}

func TestAlignLeadingUntimeableAnchorsAtZero(t *testing.T) {
	lines := [][]lyrics.Syllable{{syl("「", "", "「"), syl("か", "", "ka")}}
	got, err := align.Aligner{FrameRatio: 1, SampleRate: 100}.Align(lines, []align.Chunk{spansFor("ka", 50, 5)})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if s := got[0][0].Syllable; s.StartS != 0 || s.EndS != 0 {
		t.Fatalf("expected zero anchor, got %v-%v", s.StartS, s.EndS)
	}
}

func TestAlignDropsEmptyLines(t *testing.T) {
	lines := [][]lyrics.Syllable{{syl(" ", "", " ")}, {syl("か", "", "ka")}}
	got, err := align.Aligner{FrameRatio: 1, SampleRate: 100}.Align(lines, []align.Chunk{spansFor("ka", 0, 1)})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected separator-only line to be dropped, got %d lines", len(got))
	}
}

func TestAlignAdvancesChunksAndSkipsEmpty(t *testing.T) {
	lines := [][]lyrics.Syllable{{syl("き", "", "ki"), syl("み", "", "mi"), syl(" ", "", " "), syl("と", "", "to")}}
	chunks := []align.Chunk{spansFor("kimi", 0, 2), {}, spansFor("to", 20, 2)}
	got, err := align.Aligner{FrameRatio: 1, SampleRate: 10}.Align(lines, chunks)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	prev := -1.0
	for _, s := range got[0].Syllables() {
		if s.StartS < prev || s.EndS < s.StartS {
			t.Fatalf("times not monotonic: %v", got[0])
		}
		prev = s.EndS
	}
	if to := got[0][3].Syllable; !approx(to.StartS, 2.0) || !approx(to.EndS, 2.4) {
		t.Fatalf("unexpected timing for to: %v-%v", to.StartS, to.EndS)
	}
}

func TestAlignErrors(t *testing.T) {
	tests := []struct {
		name   string
		lines  [][]lyrics.Syllable
		chunks []align.Chunk
		want   error
	}{
		{
			name:   "exhausted",
			lines:  [][]lyrics.Syllable{{syl("か", "", "ka"), syl("き", "", "ki")}},
			chunks: []align.Chunk{spansFor("ka", 0, 1)},
			want:   align.ErrStreamExhausted,
		},
		{
			name:   "token identity",
			lines:  [][]lyrics.Syllable{{syl("か", "", "ka")}},
			chunks: []align.Chunk{spansFor("ko", 0, 1)},
			want:   align.ErrTokenMismatch,
		},
		{
			name:   "straddles chunk",
			lines:  [][]lyrics.Syllable{{syl("か", "", "ka"), syl("し", "", "shi")}},
			chunks: []align.Chunk{spansFor("kas", 0, 1), spansFor("hi", 3, 1)},
			want:   align.ErrTokenMismatch,
		},
		{
			name:   "unconsumed",
			lines:  [][]lyrics.Syllable{{syl("か", "", "ka")}},
			chunks: []align.Chunk{spansFor("ka", 0, 1), spansFor("ki", 2, 1)},
			want:   align.ErrUnconsumedSpans,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := align.Aligner{FrameRatio: 1, SampleRate: 100}.Align(tt.lines, tt.chunks)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
		})
	}
}

func TestAlignRejectsBadParameters(t *testing.T) {
	_, err := align.Aligner{FrameRatio: 0, SampleRate: 100}.Align(nil, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAlignConservesSpans(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines int
	}{
		{"annotated", "[走る](はしる)よ きみと\n[空](そら)へ", 2},
		{"decomposed latin", "cafe\u0301 desu\nmerci", 2},
		{"decomposed kana", "か\u3099っこう\nは\u309aん", 2},
		{"punctuation inside words", "ｋｉｍｉ、to！\nDon’t stop", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := lyrics.Parse(tt.input, nil)
			transcript, err := text.Transcript(align.MMSVocabulary)
			if err != nil {
				t.Fatalf("Transcript: %v", err)
			}
			chunks := make([]align.Chunk, 0, len(transcript))
			frame := 0
			for _, word := range transcript {
				chunks = append(chunks, spansFor(word, frame, 3))
				frame += 3*len(word) + 5
			}
			var lines [][]lyrics.Syllable
			for _, l := range text.Lines() {
				s, err := l.Syllables()
				if err != nil {
					t.Fatalf("Syllables: %v", err)
				}
				lines = append(lines, s)
			}
			got, err := align.Aligner{FrameRatio: 320, SampleRate: 16000}.Align(lines, chunks)
			if err != nil {
				t.Fatalf("Align(%q) with transcript %q: %v", tt.input, transcript, err)
			}
			if len(got) != tt.lines {
				t.Fatalf("expected %d lines, got %d", tt.lines, len(got))
			}
			total, err := align.CountTokens(align.NewCharTokenizer(""), transcript)
			if err != nil {
				t.Fatalf("CountTokens: %v", err)
			}
			if total != align.CountSpans(chunks) {
				t.Fatalf("token count %d != span count %d", total, align.CountSpans(chunks))
			}
		})
	}
}

func TestAlignDecomposedKanaTimesOneSyllable(t *testing.T) {
	text := lyrics.Parse("か\u3099", nil)
	syllables, err := text.Syllables()
	if err != nil {
		t.Fatalf("Syllables: %v", err)
	}
	got, err := align.Aligner{FrameRatio: 1, SampleRate: 100}.Align([][]lyrics.Syllable{syllables}, []align.Chunk{spansFor("ga", 0, 10)})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	timed := got[0].Syllables()
	if len(timed) != 1 || timed[0].Roman != "ga" || !approx(timed[0].EndS, 0.2) {
		t.Fatalf("unexpected timing: %#v", timed)
	}
}

func TestLineHelpers(t *testing.T) {
	line := align.Line{
		align.SeparatorItem(),
		align.SyllableItem(align.TimedSyllable{Syllable: syl("か", "", "ka"), StartS: 1, EndS: 2}),
		align.SeparatorItem(),
		align.SyllableItem(align.TimedSyllable{Syllable: syl("き", "", "ki"), StartS: 2, EndS: 3}),
		align.SeparatorItem(),
	}
	trimmed := line.TrimSeparators()
	if len(trimmed) != 3 || trimmed[0].IsSeparator() || trimmed[2].IsSeparator() {
		t.Fatalf("unexpected trim: %v", trimmed)
	}
	start, end, ok := line.Bounds()
	if !ok || start != 1 || end != 3 {
		t.Fatalf("Bounds = %v %v %v", start, end, ok)
	}
	if trimmed.String() != "か き" {
		t.Fatalf("String = %q", trimmed.String())
	}
}

func TestCharTokenizer(t *testing.T) {
	tok := align.NewCharTokenizer("")
	got, err := tok.Tokenize("ha shi")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(got) != 5 || got[0] != "h" || got[2] != "s" {
		t.Fatalf("unexpected tokens %q", got)
	}
	if _, err := tok.Tokenize("ha1"); err == nil {
		t.Fatal("expected error for out-of-vocabulary character")
	}
}
