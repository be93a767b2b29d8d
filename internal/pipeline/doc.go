// Package pipeline runs one song end to end: load and annotate the lyrics,
// prepare the audio, force-align the transcript, time every syllable, rewrap
// the lines and write the karaoke subtitle file.
//
// Each step runs as a named stage with start, completion and failure logged
// under the run's context fields. The context is checked between stages, and a
// file lock on the output path keeps two runs from writing the same subtitle.
package pipeline
