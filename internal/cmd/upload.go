package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookdrop/bookdrop/internal/uploader"
	"github.com/bookdrop/bookdrop/internal/uploader/caption"
	"github.com/bookdrop/bookdrop/internal/uploader/metadata"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var noUpload bool

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload an audiobook to Telegram with a metadata caption",
		Long: `Upload a single audiobook file to the configured Telegram chat.

The caption is generated from the file's tags. BOT_TOKEN and
TELEGRAM_CHAT_ID must be set in the environment or a .env file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := metadata.NewExtractor().Extract(args[0])
			if err != nil {
				return err
			}
			text := caption.Format(meta)

			if noUpload {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			cfg := uploader.Load()
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			transport := newTransport(cfg, logger)
			if err := transport.Upload(cmd.Context(), args[0], text); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Upload completed successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "generate the caption only, don't upload")

	return cmd
}
