// Package services defines shared utilities consumed by the pipeline stages and
// the wrappers around external engines.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and song labels for
//     logging.
//   - Structured error markers plus the Wrap helper so failures carry a stage
//     prefix and a classification that callers can test with errors.Is.
//
// External tools (ffmpeg, demucs, the forced aligner, uroman) live in
// subpackages and report failures through these markers.
package services
