package romanize

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"
)

// ErrInvalidEdges reports romanizer output that does not tile its input.
var ErrInvalidEdges = errors.New("invalid romanization edges")

// Edge is a romanized span of the input. Start and End are rune offsets, End exclusive.
type Edge struct {
	Start int
	End   int
	Text  string
}

// Romanizer maps text to romanization edges.
type Romanizer interface {
	Romanize(text string) ([]Edge, error)
}

// RomanizerFunc adapts a function to the Romanizer interface.
type RomanizerFunc func(text string) ([]Edge, error)

// Romanize calls f(text).
func (f RomanizerFunc) Romanize(text string) ([]Edge, error) {
	return f(text)
}

// CheckEdges verifies that edges are ordered, non-overlapping and cover text without gaps.
func CheckEdges(text string, edges []Edge) error {
	length := utf8.RuneCountInString(text)
	if length == 0 {
		if len(edges) != 0 {
			return fmt.Errorf("%w: %d edges for empty input", ErrInvalidEdges, len(edges))
		}
		return nil
	}
	cursor := 0
	for i, edge := range edges {
		if edge.Start != cursor {
			return fmt.Errorf("%w: edge %d starts at %d, expected %d", ErrInvalidEdges, i, edge.Start, cursor)
		}
		if edge.End <= edge.Start {
			return fmt.Errorf("%w: edge %d is empty (%d-%d)", ErrInvalidEdges, i, edge.Start, edge.End)
		}
		cursor = edge.End
	}
	if cursor != length {
		return fmt.Errorf("%w: edges end at %d, input has %d runes", ErrInvalidEdges, cursor, length)
	}
	return nil
}

// Join concatenates the romanized text of edges.
func Join(edges []Edge) string {
	size := 0
	for _, e := range edges {
		size += len(e.Text)
	}
	buf := make([]byte, 0, size)
	for _, e := range edges {
		buf = append(buf, e.Text...)
	}
	return string(buf)
}

// Cached memoizes another Romanizer. Safe for concurrent use.
type Cached struct {
	inner Romanizer

	mu      sync.Mutex
	entries map[string][]Edge
}

// NewCached wraps inner with an in-memory cache.
func NewCached(inner Romanizer) *Cached {
	return &Cached{inner: inner, entries: make(map[string][]Edge)}
}

// Romanize returns the cached edges for text, computing them on first use.
// Errors are not cached.
func (c *Cached) Romanize(text string) ([]Edge, error) {
	c.mu.Lock()
	if edges, ok := c.entries[text]; ok {
		c.mu.Unlock()
		return cloneEdges(edges), nil
	}
	c.mu.Unlock()

	edges, err := c.inner.Romanize(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[text] = cloneEdges(edges)
	c.mu.Unlock()
	return edges, nil
}

// Len reports how many distinct inputs are cached.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}
