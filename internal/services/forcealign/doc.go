// Package forcealign wraps the torchaudio MMS_FA forced aligner and the audio
// preparation it needs.
//
// The Service shells out through uvx: ffmpeg resamples the song to mono 16 kHz,
// demucs optionally isolates the vocal stem, and an embedded python script
// aligns the romanized transcript against the audio. Results come back as one
// chunk of token spans per transcript word together with the frame and sample
// counts needed to convert frames to seconds. Every external command goes
// through an injectable runner so tests never touch real binaries.
package forcealign
