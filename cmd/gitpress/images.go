package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newImagesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage images stored next to the posts",
	}
	cmd.AddCommand(newImagesUploadCmd(c))
	return cmd
}

func newImagesUploadCmd(c *cli) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its Markdown reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			repo, err := c.repository()
			if err != nil {
				return err
			}
			url, err := repo.UploadImage(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n![%s](%s)\n", url, name, url)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "file name to store the image under (default: base name of <file>)")
	return cmd
}
