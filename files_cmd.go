package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <file-id> [folder]",
		Short: "Download a file cabinet entry via the configured restlet",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := "."
			if len(args) > 1 {
				folder = args[1]
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}

			path, err := engine.DownloadFile(cmd.Context(), args[0], folder)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, path)

			return nil
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-dir> <remote-folder> <filename>",
		Short: "Upload a local file to a file cabinet folder",
		Long: `Upload local-dir/filename to the named file cabinet folder via the
configured restlet. A missing local file is skipped silently; uploads are
best-effort.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			return engine.UploadFile(cmd.Context(), args[0], args[1], args[2])
		},
	}
}
