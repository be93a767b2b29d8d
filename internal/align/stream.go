package align

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenMismatch reports spans that disagree with a syllable's tokens.
	ErrTokenMismatch = errors.New("alignment token mismatch")
	// ErrStreamExhausted reports a syllable with no spans left to consume.
	ErrStreamExhausted = errors.New("alignment stream exhausted")
	// ErrUnconsumedSpans reports spans left over once every syllable is timed.
	ErrUnconsumedSpans = errors.New("alignment spans left unconsumed")
)

// TokenSpan is one aligned token. Start and End are emission frame indices.
type TokenSpan struct {
	Token string  `json:"token"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}

// Chunk holds the spans of one transcript word.
type Chunk []TokenSpan

// CountSpans returns the total number of spans across chunks.
func CountSpans(chunks []Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	return total
}

// stream is a cursor over chunks, owned by a single Align call.
type stream struct {
	chunks []Chunk
	chunk  int
	cursor int
}

func newStream(chunks []Chunk) *stream {
	return &stream{chunks: chunks}
}

// settle moves past exhausted chunks. It reports false when no spans remain.
func (s *stream) settle() bool {
	for s.chunk < len(s.chunks) && s.cursor >= len(s.chunks[s.chunk]) {
		s.chunk++
		s.cursor = 0
	}
	return s.chunk < len(s.chunks)
}

// take consumes n spans from the current chunk.
func (s *stream) take(n int) ([]TokenSpan, error) {
	if !s.settle() {
		return nil, ErrStreamExhausted
	}
	current := s.chunks[s.chunk]
	if remaining := len(current) - s.cursor; remaining < n {
		return nil, fmt.Errorf("%w: chunk %d has %d spans left, syllable needs %d", ErrTokenMismatch, s.chunk, remaining, n)
	}
	spans := current[s.cursor : s.cursor+n]
	s.cursor += n
	return spans, nil
}

// remaining counts spans not yet consumed.
func (s *stream) remaining() int {
	if !s.settle() {
		return 0
	}
	total := len(s.chunks[s.chunk]) - s.cursor
	for _, c := range s.chunks[s.chunk+1:] {
		total += len(c)
	}
	return total
}
