package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookdrop/bookdrop/internal/uploader"
	"github.com/bookdrop/bookdrop/internal/uploader/telegram"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test your configuration and Telegram bot access",
		Long:  "Verify environment variables and bot permissions by sending a test message to the configured chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := uploader.Load()
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			var opts []telegram.Option
			if cfg.APIBaseURL != "" {
				opts = append(opts, telegram.WithBaseURL(cfg.APIBaseURL))
			}
			client := telegram.NewClient(cfg.BotToken, cfg.ChatID, opts...)

			fmt.Fprintln(cmd.OutOrStdout(), "Testing configuration...")
			if err := client.SendMessage(cmd.Context(), "Configuration test successful!"); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Test completed successfully")
			return nil
		},
	}
}
