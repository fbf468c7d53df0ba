package main

import (
	"github.com/spf13/cobra"

	"github.com/sysdraw/sysdraw/backend-go/internal/thumbnail"
)

func thumbnailCmd() *cobra.Command {
	var (
		out           string
		width, height int
		fit           bool
		padding       float64
	)
	cmd := &cobra.Command{
		Use:   "thumbnail <file|->",
		Short: "Render a document to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			var png []byte
			if fit {
				png, err = thumbnail.RenderFit(doc, width, height, padding)
			} else {
				png, err = thumbnail.RenderView(doc, width, height)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, png)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "thumbnail.png", "output file, - for stdout")
	cmd.Flags().IntVar(&width, "width", thumbnail.DefaultWidth, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", thumbnail.DefaultHeight, "image height in pixels")
	cmd.Flags().BoolVar(&fit, "fit", false, "fit the whole diagram instead of using its camera")
	cmd.Flags().Float64Var(&padding, "padding", 16, "padding in pixels when fitting")
	return cmd
}
