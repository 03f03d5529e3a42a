package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	c.Backend.WebSocketURL = strings.TrimSpace(c.Backend.WebSocketURL)
	if c.Backend.WebSocketURL == "" {
		c.Backend.WebSocketURL = deriveWebSocketURL(c.Backend.BaseURL)
	}
	if c.Backend.AccessToken == "" {
		if value, ok := os.LookupEnv("CLIPSTUDIO_TOKEN"); ok {
			c.Backend.AccessToken = value
		}
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxClips <= 0 {
		c.Workflow.MaxClips = defaultMaxClips
	}
	if c.Workflow.RegenerateQuota < 0 {
		c.Workflow.RegenerateQuota = defaultRegenerateQuota
	}
	if c.Workflow.MinTrimMS <= 0 {
		c.Workflow.MinTrimMS = defaultMinTrimMS
	}
	if c.Workflow.MaxTrimMS <= 0 {
		c.Workflow.MaxTrimMS = defaultMaxTrimMS
	}
	if c.Workflow.DebounceMS <= 0 {
		c.Workflow.DebounceMS = defaultDebounceMS
	}
	if c.Workflow.JobWatchdogSecs <= 0 {
		c.Workflow.JobWatchdogSecs = defaultJobWatchdogSeconds
	}
	if c.Workflow.JobTimeoutSecs <= 0 {
		c.Workflow.JobTimeoutSecs = defaultJobTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// deriveWebSocketURL maps an http(s) base URL to its ws(s) event endpoint.
func deriveWebSocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/events"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/events"
	default:
		return baseURL + "/events"
	}
}
