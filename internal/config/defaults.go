package config

const (
	defaultLibraryDir = "~/.local/share/foley/library"
	defaultLogDir     = "~/.local/share/foley/logs"
	defaultExportDir  = "~/.local/share/foley/exports"

	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultGeminiEmbeddingModel = "gemini-embedding-001"
	defaultGeminiTimeoutSeconds = 120
	defaultGeminiMaxEvents      = 20

	defaultElevenLabsBaseURL        = "https://api.elevenlabs.io"
	defaultElevenLabsDuration       = 3.0
	defaultElevenLabsTimeoutSeconds = 60

	defaultSimilarityThreshold = 0.70
	defaultKeywordMatchScore   = 0.75
	defaultSearchLimit         = 5

	defaultMaxRegenerationAttempts = 2

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			ExportDir:  defaultExportDir,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			EmbeddingModel: defaultGeminiEmbeddingModel,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
			MaxEvents:      defaultGeminiMaxEvents,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:                defaultElevenLabsBaseURL,
			DefaultDurationSeconds: defaultElevenLabsDuration,
			TimeoutSeconds:         defaultElevenLabsTimeoutSeconds,
		},
		Engine: Engine{
			SimilarityThreshold: defaultSimilarityThreshold,
			KeywordMatchScore:   defaultKeywordMatchScore,
			SearchLimit:         defaultSearchLimit,
		},
		Workflow: Workflow{
			MaxRegenerationAttempts: defaultMaxRegenerationAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
