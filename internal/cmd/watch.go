package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bookdrop/bookdrop/internal/uploader"
	"github.com/bookdrop/bookdrop/internal/uploader/caption"
	"github.com/bookdrop/bookdrop/internal/uploader/metadata"
	"github.com/bookdrop/bookdrop/internal/uploader/observer"
	"github.com/bookdrop/bookdrop/internal/uploader/relocate"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Monitor a directory for new audiobooks and upload them",
		Long: `Watch a directory for newly completed audiobook files.

Each file whose size has held steady across two polls is captioned from its
tags, uploaded to the configured Telegram chat and moved into the processed
subdirectory. Per-file failures are logged and never stop the watch loop.

The command runs until interrupted with Ctrl+C or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := uploader.Load()
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			watchDir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(watchDir, 0755); err != nil {
				return fmt.Errorf("create watch directory: %w", err)
			}
			if err := uploader.ValidateWatchDir(watchDir); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var obs uploader.DirectoryObserver
			switch backend {
			case "poll":
				obs, err = observer.NewPollObserver(watchDir, cfg.Extensions)
			case "fsnotify":
				var notify *observer.NotifyObserver
				notify, err = observer.NewNotifyObserver(watchDir, cfg.Extensions)
				if err == nil {
					defer notify.Close()
					obs = notify
				}
			default:
				return fmt.Errorf("unknown observer backend %q", backend)
			}
			if err != nil {
				return fmt.Errorf("create observer: %w", err)
			}

			processor := uploader.NewProcessor(
				uploader.ProcessorConfig{
					ProcessedDir:     filepath.Join(watchDir, cfg.ProcessedDirName),
					MaxUploadRetries: cfg.MaxUploadRetries,
					BackoffBase:      cfg.BackoffBase,
					BackoffMax:       cfg.BackoffMax,
				},
				metadata.NewExtractor(),
				caption.Format,
				newTransport(cfg, logger),
				relocate.NewMover(),
				logger,
			)

			service := uploader.NewService(obs, processor, cfg.PollInterval, cfg.MaxConcurrentUploads, logger)

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for new audiobooks...\n", watchDir)
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

			return service.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&backend, "observer", "poll", "directory observer backend (poll or fsnotify)")

	return cmd
}
