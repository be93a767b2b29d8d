package lyrics

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"lyricsync/internal/romanize"
)

var annotationPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)

// ElementKind distinguishes plain text from annotated text.
type ElementKind int

const (
	KindPlain ElementKind = iota
	KindAnnotation
)

// Annotation pairs base text (usually kanji) with its phonetic reading.
type Annotation struct {
	Base    string
	Reading string
}

func (a Annotation) String() string {
	return "[" + a.Base + "](" + a.Reading + ")"
}

// Element is either plain text or an annotation.
type Element struct {
	Kind       ElementKind
	Plain      string
	Annotation Annotation
}

// PlainElement returns a plain text element.
func PlainElement(text string) Element {
	return Element{Kind: KindPlain, Plain: text}
}

// AnnotationElement returns an annotated element.
func AnnotationElement(base, reading string) Element {
	return Element{Kind: KindAnnotation, Annotation: Annotation{Base: base, Reading: reading}}
}

func (e Element) String() string {
	if e.Kind == KindAnnotation {
		return e.Annotation.String()
	}
	return e.Plain
}

// source is the text handed to the romanizer for this element.
func (e Element) source() string {
	if e.Kind == KindAnnotation {
		return e.Annotation.Reading
	}
	return e.Plain
}

// Text is an ordered sequence of elements. It is immutable once built.
type Text struct {
	elements  []Element
	romanizer romanize.Romanizer

	linesOnce sync.Once
	lines     []*Text

	syllablesOnce sync.Once
	syllables     []Syllable
	syllablesErr  error

	romanizedOnce sync.Once
	romanized     []string
	romanizedErr  error
}

// New builds a Text from elements. Adjacent plain elements are merged, empty
// plain elements dropped and everything composed to NFC so that equal content
// always has one representation.
func New(r romanize.Romanizer, elems ...Element) *Text {
	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		if e.Kind == KindPlain {
			if e.Plain == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Kind == KindPlain {
				out[n-1].Plain += e.Plain
				continue
			}
		}
		out = append(out, e)
	}
	for i := range out {
		out[i].Plain = norm.NFC.String(out[i].Plain)
		out[i].Annotation.Base = norm.NFC.String(out[i].Annotation.Base)
		out[i].Annotation.Reading = norm.NFC.String(out[i].Annotation.Reading)
	}
	if r == nil {
		r = romanize.Kana{}
	}
	return &Text{elements: out, romanizer: r}
}

// Parse reads lyric text containing [base](reading) annotations. Anything that
// does not match the annotation syntax is kept as plain text.
func Parse(text string, r romanize.Romanizer) *Text {
	var elems []Element
	last := 0
	for _, m := range annotationPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			elems = append(elems, PlainElement(text[last:m[0]]))
		}
		elems = append(elems, AnnotationElement(text[m[2]:m[3]], text[m[4]:m[5]]))
		last = m[1]
	}
	if last < len(text) {
		elems = append(elems, PlainElement(text[last:]))
	}
	return New(r, elems...)
}

// Romanizer returns the romanizer the text was built with.
func (t *Text) Romanizer() romanize.Romanizer {
	return t.romanizer
}

// Elements returns a copy of the element sequence.
func (t *Text) Elements() []Element {
	out := make([]Element, len(t.elements))
	copy(out, t.elements)
	return out
}

// Equal reports whether both texts hold the same elements.
func (t *Text) Equal(other *Text) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.elements) != len(other.elements) {
		return false
	}
	for i := range t.elements {
		if t.elements[i] != other.elements[i] {
			return false
		}
	}
	return true
}

func (t *Text) String() string {
	var b strings.Builder
	for _, e := range t.elements {
		b.WriteString(e.String())
	}
	return b.String()
}

// Plain returns the text with annotations replaced by their readings.
func (t *Text) Plain() string {
	var b strings.Builder
	for _, e := range t.elements {
		b.WriteString(e.source())
	}
	return b.String()
}

// Lines splits the text on newlines inside plain elements. Annotations are
// never split. Lines that are empty or whitespace only are dropped.
func (t *Text) Lines() []*Text {
	t.linesOnce.Do(func() {
		var (
			lines   []*Text
			current []Element
		)
		flush := func() {
			line := New(t.romanizer, current...)
			current = nil
			if strings.TrimSpace(line.String()) == "" {
				return
			}
			lines = append(lines, line)
		}
		for _, e := range t.elements {
			if e.Kind == KindAnnotation {
				current = append(current, e)
				continue
			}
			parts := strings.Split(e.Plain, "\n")
			for i, part := range parts {
				part = strings.TrimSuffix(part, "\r")
				if part != "" {
					current = append(current, PlainElement(part))
				}
				if i < len(parts)-1 {
					flush()
				}
			}
		}
		flush()
		t.lines = lines
	})
	return t.lines
}

// Syllables romanizes every element and returns one syllable per romanization
// edge. The first syllable of an annotation carries the base text; later ones
// carry ContinuationMarker.
func (t *Text) Syllables() ([]Syllable, error) {
	t.syllablesOnce.Do(func() {
		var out []Syllable
		for _, e := range t.elements {
			src := e.source()
			edges, err := t.romanizer.Romanize(src)
			if err != nil {
				t.syllablesErr = fmt.Errorf("romanize %q: %w", src, err)
				return
			}
			if err := romanize.CheckEdges(src, edges); err != nil {
				t.syllablesErr = fmt.Errorf("romanize %q: %w", src, err)
				return
			}
			runes := []rune(src)
			for i, edge := range edges {
				syl := Syllable{Kana: string(runes[edge.Start:edge.End]), Roman: edge.Text}
				if e.Kind == KindAnnotation {
					if i == 0 {
						syl.Kanji = e.Annotation.Base
					} else {
						syl.Kanji = ContinuationMarker
					}
				}
				out = append(out, syl)
			}
		}
		t.syllables = out
	})
	if t.syllablesErr != nil {
		return nil, t.syllablesErr
	}
	return cloneSyllables(t.syllables), nil
}

// Romanized returns the romanized form of each element.
func (t *Text) Romanized() ([]string, error) {
	t.romanizedOnce.Do(func() {
		out := make([]string, 0, len(t.elements))
		for _, e := range t.elements {
			edges, err := t.romanizer.Romanize(e.source())
			if err != nil {
				t.romanizedErr = fmt.Errorf("romanize %q: %w", e.source(), err)
				return
			}
			out = append(out, romanize.Join(edges))
		}
		t.romanized = out
	})
	if t.romanizedErr != nil {
		return nil, t.romanizedErr
	}
	out := make([]string, len(t.romanized))
	copy(out, t.romanized)
	return out, nil
}

// Transcript returns the words the forced aligner is asked to locate. Each
// syllable contributes its normalized romanization restricted to vocab; words
// break at separators and at syllables with nothing left to align, so a word
// never ends inside a syllable.
func (t *Text) Transcript(vocab string) ([]string, error) {
	syllables, err := t.Syllables()
	if err != nil {
		return nil, err
	}
	var (
		words   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, syl := range syllables {
		tokens := strings.ReplaceAll(NormalizeRoman(syl.Roman, vocab), " ", "")
		if syl.IsSeparator() || tokens == "" {
			flush()
			continue
		}
		current.WriteString(tokens)
	}
	flush()
	return words, nil
}

func cloneSyllables(in []Syllable) []Syllable {
	if in == nil {
		return nil
	}
	out := make([]Syllable, len(in))
	copy(out, in)
	return out
}
