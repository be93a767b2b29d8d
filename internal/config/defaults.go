package config

const (
	defaultConfigPath       = "~/.config/lyricsync/config.toml"
	defaultWorkDir          = "~/.local/share/lyricsync/work"
	defaultCacheDirFallback = "~/.cache/lyricsync"
	defaultLogDir           = "~/.local/share/lyricsync/logs"
	defaultRomanizer        = RomanizerKana
	defaultUromanCommand    = "uroman"
	defaultAlignCommand     = "uvx"
	defaultAlignBundle      = "MMS_FA"
	defaultSampleRate       = 16000
	defaultVocalsModel      = "htdemucs"
	defaultMetric           = MetricRoman
	defaultNativeStyle      = "Sample KM [Up]"
	defaultRomanStyle       = "Sample KM [Down]"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Romanization engines.
const (
	RomanizerKana   = "kana"
	RomanizerUroman = "uroman"
)

// Line length metrics.
const (
	MetricRoman  = "roman"
	MetricNative = "native"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Romanization: Romanization{
			Engine:        defaultRomanizer,
			UromanCommand: defaultUromanCommand,
			AutoFurigana:  true,
		},
		Alignment: Alignment{
			Command:      defaultAlignCommand,
			Bundle:       defaultAlignBundle,
			SampleRate:   defaultSampleRate,
			CacheEnabled: true,
		},
		Vocals: Vocals{
			Enabled: true,
			Model:   defaultVocalsModel,
		},
		Layout: Layout{
			Metric: defaultMetric,
		},
		Subtitles: Subtitles{
			NativeStyle: defaultNativeStyle,
			RomanStyle:  defaultRomanStyle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
