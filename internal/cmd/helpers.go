package cmd

import (
	"go.uber.org/zap"

	"github.com/bookdrop/bookdrop/internal/logging"
	"github.com/bookdrop/bookdrop/internal/uploader"
	"github.com/bookdrop/bookdrop/internal/uploader/telegram"
)

// newLogger builds the application logger from the loaded configuration.
func newLogger(cfg *uploader.Config) (*zap.Logger, error) {
	logConfig := logging.DefaultConfig()
	logConfig.Level = cfg.LogLevel
	logConfig.Path = cfg.LogFile
	return logging.New(logConfig)
}

// newTransport builds the Telegram transport from the loaded configuration,
// wiring upload progress into the logger at debug level.
func newTransport(cfg *uploader.Config, logger *zap.Logger) *telegram.Client {
	opts := []telegram.Option{
		telegram.WithMaxFileSize(int64(cfg.MaxFileSizeMB) * 1024 * 1024),
		telegram.WithProgress(func(ev telegram.ProgressEvent) {
			logger.Debug("upload progress",
				zap.String("path", ev.Path),
				zap.Int64("sent", ev.Sent),
				zap.Int64("total", ev.Total),
				zap.Duration("elapsed", ev.Elapsed),
			)
		}),
	}
	if cfg.APIBaseURL != "" {
		opts = append(opts, telegram.WithBaseURL(cfg.APIBaseURL))
	}
	return telegram.NewClient(cfg.BotToken, cfg.ChatID, opts...)
}
