// Package align assigns times to lyric syllables from forced alignment output.
//
// The forced aligner reports one chunk of token spans per transcript word. The
// Aligner walks the syllables of every lyric line, re-tokenizes each syllable's
// normalized romanization, and consumes exactly that many spans from the
// stream. Any disagreement between the lyrics and the spans is fatal: the
// stream must be consumed completely and token identities must match.
package align
