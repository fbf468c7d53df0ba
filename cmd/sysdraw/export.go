package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Normalize a document or legacy patch to the wire schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := encodeDocument(doc, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// encodeDocument renders doc in the wire schema. YAML keeps the JSON field
// names by going through a generic tree.
func encodeDocument(doc *document.Document, format string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	switch format {
	case "json":
		return append(data, '\n'), nil
	case "yaml", "yml":
		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		return yaml.Marshal(tree)
	}
	return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
}
