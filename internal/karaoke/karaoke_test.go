package karaoke_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"lyricsync/internal/align"
	"lyricsync/internal/ass"
	"lyricsync/internal/karaoke"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/services"
)

func timed(kana, kanji, roman string, start, end float64) align.Item {
	return align.SyllableItem(align.TimedSyllable{
		Syllable: lyrics.Syllable{Kana: kana, Kanji: kanji, Roman: roman},
		StartS:   start,
		EndS:     end,
	})
}

func TestKDuration(t *testing.T) {
	cases := []struct {
		start, end float64
		want       int
	}{
		{0, 0.10, 10},
		{0.10, 0.18, 8},
		{0.18, 0.25, 7},
		{1.5, 1.5, 0},
	}
	for _, c := range cases {
		if got := karaoke.KDuration(c.start, c.end); got != c.want {
			t.Errorf("KDuration(%v, %v) = %d, want %d", c.start, c.end, got, c.want)
		}
	}
}

func TestEmitScenario(t *testing.T) {
	doc := ass.Default()
	line := align.Line{
		timed("は", "走る", "ha", 0, 0.10),
		timed("し", "#", "shi", 0.10, 0.18),
		timed("る", "#", "ru", 0.18, 0.25),
	}
	err := karaoke.Emitter{OriginalTiming: "lyricsync test-run"}.Emit(doc, []align.Line{line})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(doc.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(doc.Events))
	}
	native, roman := doc.Events[0], doc.Events[1]
	if native.Text != `{\k10}走る|は{\k8}#|し{\k7}#|る` {
		t.Fatalf("native text = %q", native.Text)
	}
	if roman.Text != `{\k10}ha{\k8}shi{\k7}ru` {
		t.Fatalf("roman text = %q", roman.Text)
	}
	if native.Start != 0 || native.End != 250 || roman.Start != 0 || roman.End != 250 {
		t.Fatalf("unexpected bounds: %+v %+v", native, roman)
	}
	if native.Type != ass.Comment || native.Effect != karaoke.Effect {
		t.Fatalf("unexpected event kind: %+v", native)
	}
	if native.Style != karaoke.DefaultNativeStyle || roman.Style != karaoke.DefaultRomanStyle {
		t.Fatalf("unexpected styles: %q %q", native.Style, roman.Style)
	}
	if v, _ := doc.InfoValue(karaoke.OriginalTimingKey); v != "lyricsync test-run" {
		t.Fatalf("original timing = %q", v)
	}
}

func TestEmitSnapsAcrossSeparatorAndGaps(t *testing.T) {
	doc := ass.Default()
	line := align.Line{
		align.SeparatorItem(),
		timed("き", "", "ki", 1.00, 1.20),
		timed("み", "", "mi", 1.50, 1.70),
		align.SeparatorItem(),
		timed("と", "", "to", 2.00, 2.30),
	}
	if err := (karaoke.Emitter{}).Emit(doc, []align.Line{line}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	native := doc.Events[0]
	// ki snaps to mi (50cs), mi snaps across the space to to (50cs), to uses its own end.
	if native.Text != `{\k50}き{\k50}み {\k30}と` {
		t.Fatalf("native text = %q", native.Text)
	}
	if doc.Events[1].Text != `{\k50}ki{\k50}mi{\k30}to` {
		t.Fatalf("roman text = %q", doc.Events[1].Text)
	}
	if native.Start != 1000 || native.End != 2300 {
		t.Fatalf("bounds = %d-%d", native.Start, native.End)
	}
}

func TestEmitAlternatesMargins(t *testing.T) {
	doc := ass.Default()
	lines := []align.Line{
		{timed("あ", "", "a", 0, 1)},
		{timed("い", "", "i", 1, 2)},
		{align.SeparatorItem()},
		{timed("う", "", "u", 2, 3)},
	}
	if err := (karaoke.Emitter{}).Emit(doc, lines); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(doc.Events) != 6 {
		t.Fatalf("expected separator-only line skipped, got %d events", len(doc.Events))
	}
	want := []int{0, -1, 1, 0, 0, -1}
	for i, ev := range doc.Events {
		if ev.MarginV != want[i] {
			t.Fatalf("event %d MarginV = %d, want %d", i, ev.MarginV, want[i])
		}
	}
}

func TestEmitMissingStyle(t *testing.T) {
	doc := ass.Default()
	err := karaoke.Emitter{NativeStyle: "Nope"}.Emit(doc, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEmitWrittenDocument(t *testing.T) {
	doc := ass.Default()
	line := align.Line{timed("そ", "空", "so", 61.234, 61.5), timed("ら", "#", "ra", 61.5, 62.0)}
	if err := (karaoke.Emitter{}).Emit(doc, []align.Line{line}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `Comment: 0,0:01:01.23,0:01:02.00,Sample KM [Up],,0,0,0,karaoke,{\k27}空|そ{\k50}#|ら`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("missing event line %q in:\n%s", want, buf.String())
	}
}
