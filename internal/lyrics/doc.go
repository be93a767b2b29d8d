// Package lyrics models annotated lyric text.
//
// Lyrics are plain text interleaved with ruby annotations written as
// [base](reading). A Text splits into lines, decomposes into syllables through
// a romanize.Romanizer, and produces the romanized transcript handed to the
// forced aligner. Derived views are computed once per Text and cached.
package lyrics
