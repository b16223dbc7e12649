package config

const (
	defaultLibraryDir       = "~/podbook"
	defaultLogDir           = "~/.local/share/podbook/logs"
	defaultFetchAttempts    = 5
	defaultRetryBaseSeconds = 1
	defaultRetryMaxSeconds  = 30
	defaultFetchTimeout     = 300
	defaultUserAgent        = "podbook/dev"
	defaultWhisperModel     = "base"
	defaultBookLanguage     = "en"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultIntroNote   = "This book was assembled from podcast episode transcriptions."
	defaultClosingNote = "Generated by podbook from the podcast's public RSS feed."
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Fetch: Fetch{
			MaxAttempts:      defaultFetchAttempts,
			RetryBaseSeconds: defaultRetryBaseSeconds,
			RetryMaxSeconds:  defaultRetryMaxSeconds,
			TimeoutSeconds:   defaultFetchTimeout,
			UserAgent:        defaultUserAgent,
		},
		Whisper: Whisper{
			Model: defaultWhisperModel,
		},
		Book: Book{
			Language:    defaultBookLanguage,
			IntroNote:   defaultIntroNote,
			ClosingNote: defaultClosingNote,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
