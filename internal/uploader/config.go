package uploader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values for optional configuration fields.
const (
	DefaultProcessedDirName     = "processed"
	DefaultPollIntervalMs       = 2000
	DefaultMaxConcurrentUploads = 2
	DefaultMaxUploadRetries     = 3
	DefaultBackoffBaseMs        = 1000
	DefaultBackoffMaxMs         = 60000
	DefaultMaxFileSizeMB        = 4096
	DefaultLogFile              = "bookdrop.log"
)

// DefaultExtensions are the audiobook container types handled by default.
var DefaultExtensions = []string{".m4b", ".m4a", ".mp3"}

// ConfigError describes an invalid or missing configuration value. It is
// fatal at startup; nothing else in the pipeline aborts the process.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validation errors.
var (
	ErrBotTokenRequired = &ConfigError{Field: "BOT_TOKEN", Reason: "required"}
	ErrChatIDRequired   = &ConfigError{Field: "TELEGRAM_CHAT_ID", Reason: "required"}
)

// Config holds everything the pipeline consumes from the environment.
type Config struct {
	BotToken             string
	ChatID               string
	APIBaseURL           string
	ProcessedDirName     string
	PollInterval         time.Duration
	MaxConcurrentUploads int
	// MaxUploadRetries of 0 disables retries; negative means unset.
	MaxUploadRetries int
	BackoffBase          time.Duration
	BackoffMax           time.Duration
	MaxFileSizeMB        int
	Extensions           []string
	LogLevel             string
	LogFile              string
}

// Load reads configuration from the environment, consulting a .env file in
// the working directory first. Values already present in the environment win
// over the file.
func Load() *Config {
	// Missing .env is fine; the environment alone may be complete.
	_ = godotenv.Load()

	return &Config{
		BotToken:             os.Getenv("BOT_TOKEN"),
		ChatID:               os.Getenv("TELEGRAM_CHAT_ID"),
		APIBaseURL:           os.Getenv("BOOKDROP_API_URL"),
		ProcessedDirName:     getEnv("BOOKDROP_PROCESSED_DIR", ""),
		PollInterval:         time.Duration(getEnvInt("BOOKDROP_POLL_INTERVAL_MS", 0)) * time.Millisecond,
		MaxConcurrentUploads: getEnvInt("BOOKDROP_MAX_CONCURRENT_UPLOADS", 0),
		MaxUploadRetries:     getEnvInt("BOOKDROP_MAX_UPLOAD_RETRIES", -1),
		BackoffBase:          time.Duration(getEnvInt("BOOKDROP_BACKOFF_BASE_MS", 0)) * time.Millisecond,
		BackoffMax:           time.Duration(getEnvInt("BOOKDROP_BACKOFF_MAX_MS", 0)) * time.Millisecond,
		MaxFileSizeMB:        getEnvInt("BOOKDROP_MAX_FILE_SIZE_MB", 0),
		Extensions:           splitExtensions(os.Getenv("BOOKDROP_EXTENSIONS")),
		LogLevel:             getEnv("BOOKDROP_LOG_LEVEL", ""),
		LogFile:              getEnv("BOOKDROP_LOG_FILE", ""),
	}
}

// ApplyDefaults fills optional fields that are empty or zero. Call it before
// Validate.
func (c *Config) ApplyDefaults() {
	if c.ProcessedDirName == "" {
		c.ProcessedDirName = DefaultProcessedDirName
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollIntervalMs * time.Millisecond
	}
	if c.MaxConcurrentUploads == 0 {
		c.MaxConcurrentUploads = DefaultMaxConcurrentUploads
	}
	// Zero is a valid "no retries" setting; only unset gets the default.
	if c.MaxUploadRetries < 0 {
		c.MaxUploadRetries = DefaultMaxUploadRetries
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = DefaultBackoffBaseMs * time.Millisecond
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = DefaultBackoffMaxMs * time.Millisecond
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

// Validate checks the fields the upload path depends on.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrBotTokenRequired
	}
	if c.ChatID == "" {
		return ErrChatIDRequired
	}
	if c.PollInterval <= 0 {
		return &ConfigError{Field: "BOOKDROP_POLL_INTERVAL_MS", Reason: "must be positive"}
	}
	if c.MaxConcurrentUploads <= 0 {
		return &ConfigError{Field: "BOOKDROP_MAX_CONCURRENT_UPLOADS", Reason: "must be positive"}
	}
	if c.MaxUploadRetries < 0 {
		return &ConfigError{Field: "BOOKDROP_MAX_UPLOAD_RETRIES", Reason: "must not be negative"}
	}
	if c.MaxFileSizeMB <= 0 {
		return &ConfigError{Field: "BOOKDROP_MAX_FILE_SIZE_MB", Reason: "must be positive"}
	}
	return nil
}

// ValidateWatchDir checks that path exists and is a directory.
func ValidateWatchDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigError{Field: "watch directory", Reason: err.Error()}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "watch directory", Reason: fmt.Sprintf("%s is not a directory", path)}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// splitExtensions parses a comma-separated extension list, normalizing each
// entry to a lowercase ".ext" form.
func splitExtensions(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var extensions []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		extensions = append(extensions, part)
	}
	return extensions
}
