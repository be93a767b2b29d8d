package forcealign

// Config captures runtime settings for forced alignment.
type Config struct {
	// Command launches the python tooling (normally uvx).
	Command string
	// CUDAEnabled runs the acoustic model on the GPU.
	CUDAEnabled bool
	// SampleRate is the rate audio is resampled to before alignment.
	SampleRate int
	// VocalsModel is the demucs model used for vocal separation.
	VocalsModel string
	// FFmpegBinary resamples audio.
	FFmpegBinary string
}

// Forced alignment constants.
const (
	DefaultSampleRate  = 16000
	DefaultVocalsModel = "htdemucs"
	CUDAIndexURL       = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL       = "https://pypi.org/simple"
	CPUDevice          = "cpu"
	CUDADevice         = "cuda"
	alignPackage       = "torchaudio"
	demucsPackage      = "demucs"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
