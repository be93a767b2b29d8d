// Package aligncache persists forced alignment results in SQLite.
//
// Alignment is the slow step of a run, and its output depends only on the
// audio bytes, the transcript, and the model bundle. Entries are keyed by a
// digest of those three inputs so that re-running a song after editing the
// layout or styles skips the aligner entirely.
package aligncache
