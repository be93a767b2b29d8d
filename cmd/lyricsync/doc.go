// Command lyricsync times annotated lyrics against a song and writes a
// karaoke .ass subtitle.
//
// `lyricsync run` drives the full pipeline. `syllables` and `transcript` show
// how a lyrics file will be split and romanized before any audio is touched,
// `config` creates and checks the TOML configuration, and `cache` inspects the
// alignment cache.
package main
