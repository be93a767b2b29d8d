package furigana_test

import (
	"strings"
	"testing"

	"lyricsync/internal/furigana"
	"lyricsync/internal/lyrics"
)

type fakeSegmenter map[string][]furigana.Morpheme

func (f fakeSegmenter) Segment(text string) []furigana.Morpheme {
	if m, ok := f[text]; ok {
		return m
	}
	return []furigana.Morpheme{{Surface: text}}
}

func TestAnnotateSplitsOkurigana(t *testing.T) {
	seg := fakeSegmenter{
		"空を走る": {
			{Surface: "空", Reading: "ソラ"},
			{Surface: "を", Reading: "ヲ"},
			{Surface: "走る", Reading: "ハシル"},
		},
	}
	text := lyrics.Parse("空を走る", nil)
	got := furigana.New(seg).Annotate(text)
	if got.String() != "[空](そら)を[走](はし)る" {
		t.Fatalf("Annotate = %q", got.String())
	}
}

func TestAnnotateKeepsExistingAnnotations(t *testing.T) {
	seg := fakeSegmenter{"の歌\nla la": {
		{Surface: "の", Reading: "ノ"},
		{Surface: "歌", Reading: "ウタ"},
		{Surface: "\n"},
		{Surface: "la"},
		{Surface: " "},
		{Surface: "la"},
	}}
	text := lyrics.Parse("[君](きみ)の歌\nla la", nil)
	got := furigana.New(seg).Annotate(text)
	if got.String() != "[君](きみ)の[歌](うた)\nla la" {
		t.Fatalf("Annotate = %q", got.String())
	}
}

func TestAnnotateLeavesUnknownReadings(t *testing.T) {
	seg := fakeSegmenter{"龘": {{Surface: "龘"}}}
	text := lyrics.Parse("龘", nil)
	if got := furigana.New(seg).Annotate(text); got.String() != "龘" {
		t.Fatalf("Annotate = %q", got.String())
	}
}

func TestAnnotateLeadingKana(t *testing.T) {
	seg := fakeSegmenter{"お茶": {{Surface: "お茶", Reading: "オチャ"}}}
	got := furigana.New(seg).Annotate(lyrics.Parse("お茶", nil))
	if got.String() != "お[茶](ちゃ)" {
		t.Fatalf("Annotate = %q", got.String())
	}
}

func TestKagomeSegmenter(t *testing.T) {
	a, err := furigana.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	got := a.Annotate(lyrics.Parse("東京へ", nil)).String()
	if !strings.Contains(got, "[東京](とうきょう)") {
		t.Fatalf("expected 東京 reading, got %q", got)
	}
	syllables, err := a.Annotate(lyrics.Parse("東京へ", nil)).Syllables()
	if err != nil {
		t.Fatalf("Syllables: %v", err)
	}
	if syllables[0].Kanji != "東京" || syllables[0].Roman != "to" {
		t.Fatalf("unexpected first syllable %#v", syllables[0])
	}
}

func TestToHiragana(t *testing.T) {
	if got := furigana.ToHiragana("カタカナー"); got != "かたかなー" {
		t.Fatalf("ToHiragana = %q", got)
	}
}
