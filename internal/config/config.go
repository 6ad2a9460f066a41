package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"YF_ENV" default:"development"`

	HTTPPort    int           `envconfig:"YF_HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"YF_HTTP_TIMEOUT" default:"15s"`

	// Upstream politeness. MinRequestInterval is the minimum spacing
	// between outbound extraction calls.
	MinRequestInterval time.Duration `envconfig:"YF_MIN_REQUEST_INTERVAL" default:"5s"`
	UserAgent          string        `envconfig:"YF_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`

	// Metadata resolution.
	MetadataRetries    int           `envconfig:"YF_METADATA_RETRIES" default:"2"`
	MetadataRetryDelay time.Duration `envconfig:"YF_METADATA_RETRY_DELAY" default:"2s"`
	MaxFormats         int           `envconfig:"YF_MAX_FORMATS" default:"10"`
	MaxDuration        time.Duration `envconfig:"YF_MAX_DURATION" default:"2h"`

	// Download execution.
	DownloadTimeout        time.Duration `envconfig:"YF_DOWNLOAD_TIMEOUT" default:"30m"`
	MaxFileSize            int64         `envconfig:"YF_MAX_FILE_SIZE" default:"2147483648"`
	MaxConcurrentDownloads int           `envconfig:"YF_MAX_CONCURRENT_DOWNLOADS" default:"2"`

	// Retry budgets. Batch downloads get a smaller budget to bound the
	// total time of one batch.
	DownloadAttempts     int           `envconfig:"YF_DOWNLOAD_ATTEMPTS" default:"3"`
	DownloadInitialDelay time.Duration `envconfig:"YF_DOWNLOAD_INITIAL_DELAY" default:"5s"`
	BatchAttempts        int           `envconfig:"YF_BATCH_ATTEMPTS" default:"2"`
	BatchInitialDelay    time.Duration `envconfig:"YF_BATCH_INITIAL_DELAY" default:"3s"`
	BatchInterItemDelay  time.Duration `envconfig:"YF_BATCH_INTER_ITEM_DELAY" default:"2s"`

	// Local storage.
	TempDir       string        `envconfig:"YF_TEMP_DIR" default:"./temp"`
	CookiesDir    string        `envconfig:"YF_COOKIES_DIR" default:"./cookies"`
	SweepInterval time.Duration `envconfig:"YF_SWEEP_INTERVAL" default:"1h"`
	SweepMaxAge   time.Duration `envconfig:"YF_SWEEP_MAX_AGE" default:"24h"`

	SessionTTL time.Duration `envconfig:"YF_SESSION_TTL" default:"10m"`

	YtdlpPath string `envconfig:"YF_YTDLP_PATH" default:"yt-dlp"`

	ShutdownTimeout time.Duration `envconfig:"YF_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"YF_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"YF_LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.MinRequestInterval < 0 {
		return fmt.Errorf("min request interval must not be negative: %s", c.MinRequestInterval)
	}

	if c.MaxFormats <= 0 {
		return fmt.Errorf("max formats must be positive: %d", c.MaxFormats)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive: %d", c.MaxFileSize)
	}

	if c.DownloadAttempts <= 0 || c.BatchAttempts <= 0 {
		return fmt.Errorf("retry attempt budgets must be positive: %d/%d", c.DownloadAttempts, c.BatchAttempts)
	}

	if c.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("max concurrent downloads must be positive: %d", c.MaxConcurrentDownloads)
	}

	if c.TempDir == "" {
		return fmt.Errorf("temp directory cannot be empty")
	}
	if c.CookiesDir == "" {
		return fmt.Errorf("cookies directory cannot be empty")
	}
	if c.YtdlpPath == "" {
		return fmt.Errorf("yt-dlp path cannot be empty")
	}

	return nil
}
