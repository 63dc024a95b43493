package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookdrop/bookdrop/internal/uploader/caption"
	"github.com/bookdrop/bookdrop/internal/uploader/metadata"
)

// NewCaptionCmd creates the caption command
func NewCaptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <path>",
		Short: "Generate a caption from an audiobook's metadata",
		Long:  "Read the tags of the given audiobook file and print the formatted upload caption without uploading anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := metadata.NewExtractor().Extract(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), caption.Format(meta))
			return nil
		},
	}
}
