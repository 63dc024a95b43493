package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the bookdrop CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookdrop",
		Short: "Audiobook caption generator and Telegram uploader",
		Long:  "Bookdrop watches for finished audiobook files, formats metadata captions and uploads the books to a Telegram chat",
	}

	rootCmd.AddCommand(NewCaptionCmd())
	rootCmd.AddCommand(NewUploadCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewTestCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
