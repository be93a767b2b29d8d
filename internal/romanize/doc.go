// Package romanize converts lyric text into romanization edges.
//
// An edge covers a contiguous rune range of the input together with the
// romanized form of that range. Edges are the unit the lyric model turns into
// syllables, so every romanizer must return ordered, gap-free edges spanning
// the whole input (see CheckEdges).
//
// Two engines are provided: Kana, a built-in Hepburn table for hiragana and
// katakana, and Uroman, which shells out to the uroman tool. Cached wraps
// either one so repeated readings are romanized once per process.
package romanize
