package config

const (
	defaultDataDir            = "~/.local/share/clipstudio"
	defaultLogDir             = "~/.local/share/clipstudio/logs"
	defaultBackendBaseURL     = "http://127.0.0.1:8080/v1"
	defaultRequestTimeout     = 30
	defaultMaxClips           = 5
	defaultRegenerateQuota    = 2
	defaultMinTrimMS          = 1_000
	defaultMaxTrimMS          = 60_000
	defaultDebounceMS         = 2_000
	defaultJobWatchdogSeconds = 30
	defaultJobTimeoutSeconds  = 600
	defaultNtfyRequestTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Backend: Backend{
			BaseURL:        defaultBackendBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Workflow: Workflow{
			MaxClips:        defaultMaxClips,
			RegenerateQuota: defaultRegenerateQuota,
			MinTrimMS:       defaultMinTrimMS,
			MaxTrimMS:       defaultMaxTrimMS,
			DebounceMS:      defaultDebounceMS,
			JobWatchdogSecs: defaultJobWatchdogSeconds,
			JobTimeoutSecs:  defaultJobTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Errors:         true,
			Workflow:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
