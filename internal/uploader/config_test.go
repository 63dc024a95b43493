package uploader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("BOOKDROP_POLL_INTERVAL_MS", "500")
	t.Setenv("BOOKDROP_MAX_CONCURRENT_UPLOADS", "4")
	t.Setenv("BOOKDROP_EXTENSIONS", "m4b, .MP3")

	cfg := Load()

	if cfg.BotToken != "123:abc" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.ChatID != "-100200300" {
		t.Errorf("ChatID = %q", cfg.ChatID)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.MaxConcurrentUploads != 4 {
		t.Errorf("MaxConcurrentUploads = %d", cfg.MaxConcurrentUploads)
	}
	if want := []string{".m4b", ".mp3"}; !reflect.DeepEqual(cfg.Extensions, want) {
		t.Errorf("Extensions = %v, want %v", cfg.Extensions, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{MaxUploadRetries: -1}
	cfg.ApplyDefaults()

	if cfg.ProcessedDirName != DefaultProcessedDirName {
		t.Errorf("ProcessedDirName = %q", cfg.ProcessedDirName)
	}
	if cfg.PollInterval != DefaultPollIntervalMs*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.MaxConcurrentUploads != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrentUploads = %d", cfg.MaxConcurrentUploads)
	}
	if cfg.MaxUploadRetries != DefaultMaxUploadRetries {
		t.Errorf("MaxUploadRetries = %d", cfg.MaxUploadRetries)
	}
	if cfg.BackoffBase != DefaultBackoffBaseMs*time.Millisecond {
		t.Errorf("BackoffBase = %v", cfg.BackoffBase)
	}
	if cfg.MaxFileSizeMB != DefaultMaxFileSizeMB {
		t.Errorf("MaxFileSizeMB = %d", cfg.MaxFileSizeMB)
	}
	if !reflect.DeepEqual(cfg.Extensions, DefaultExtensions) {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		ProcessedDirName: "done",
		PollInterval:     time.Second,
	}
	cfg.ApplyDefaults()

	if cfg.ProcessedDirName != "done" {
		t.Errorf("ProcessedDirName = %q, want done", cfg.ProcessedDirName)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
}

func TestApplyDefaults_ZeroRetriesIsExplicit(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("BOOKDROP_MAX_UPLOAD_RETRIES", "0")

	cfg := Load()
	cfg.ApplyDefaults()

	if cfg.MaxUploadRetries != 0 {
		t.Errorf("MaxUploadRetries = %d, want explicit 0 preserved", cfg.MaxUploadRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero retries rejected: %v", err)
	}
}

func TestLoad_UnsetRetriesGetsDefault(t *testing.T) {
	// An empty value does not parse as an int, so it counts as unset.
	t.Setenv("BOOKDROP_MAX_UPLOAD_RETRIES", "")

	cfg := Load()
	if cfg.MaxUploadRetries != -1 {
		t.Errorf("MaxUploadRetries = %d, want -1 before defaults", cfg.MaxUploadRetries)
	}

	cfg.ApplyDefaults()
	if cfg.MaxUploadRetries != DefaultMaxUploadRetries {
		t.Errorf("MaxUploadRetries = %d, want %d", cfg.MaxUploadRetries, DefaultMaxUploadRetries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{BotToken: "123:abc", ChatID: "42"}
		cfg.ApplyDefaults()
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config failed: %v", err)
	}

	cfg := valid()
	cfg.BotToken = ""
	if err := cfg.Validate(); !errors.Is(err, ErrBotTokenRequired) {
		t.Errorf("missing token: err = %v", err)
	}

	cfg = valid()
	cfg.ChatID = ""
	if err := cfg.Validate(); !errors.Is(err, ErrChatIDRequired) {
		t.Errorf("missing chat id: err = %v", err)
	}

	cfg = valid()
	cfg.PollInterval = -time.Second
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("negative interval: err = %v, want *ConfigError", err)
	}
}

func TestValidateWatchDir(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateWatchDir(dir); err != nil {
		t.Errorf("valid directory rejected: %v", err)
	}

	var cfgErr *ConfigError
	if err := ValidateWatchDir(filepath.Join(dir, "missing")); !errors.As(err, &cfgErr) {
		t.Errorf("missing path: err = %v, want *ConfigError", err)
	}

	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateWatchDir(file); !errors.As(err, &cfgErr) {
		t.Errorf("file path: err = %v, want *ConfigError", err)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("BOOKDROP_TEST_INT", "not-a-number")

	if got := getEnvInt("BOOKDROP_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want fallback 7", got)
	}
}

func TestSplitExtensions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{".m4b", []string{".m4b"}},
		{"m4b,mp3", []string{".m4b", ".mp3"}},
		{" .M4B , , MP3 ", []string{".m4b", ".mp3"}},
	}

	for _, tt := range tests {
		if got := splitExtensions(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitExtensions(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
