package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/paravox/internal/segment"
)

func segmentCmd() *cobra.Command {
	var input string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Preview how a text splits into paragraphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(input)
			if err != nil {
				return err
			}

			preview := segment.NewPreview(text)
			out := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(preview)
			}

			fmt.Fprintf(out, "%d characters, %d paragraphs\n", preview.Characters, len(preview.Paragraphs))
			for i, p := range preview.Paragraphs {
				fmt.Fprintf(out, "%3d  %s\n", i+1, segment.Truncate(p, 100))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "text file to read (- for stdin)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
