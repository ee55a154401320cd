// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/nermap/ner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type treeDump struct {
	Sentence int        `json:"sentence"`
	Tokens   []string   `json:"tokens"`
	Spans    []ner.Span `json:"spans"`
	Trailing []ner.Span `json:"trailing,omitempty"`
}

// dumpTrees reports, per tree, the spans kept by default and those that only
// the trailing flush adds.
func dumpTrees(trees []*ner.Group, accepted ner.TagSet) []treeDump {
	dumps := make([]treeDump, 0, len(trees))

	for i, t := range trees {
		kept := ner.ExtractSpans(t, accepted, ner.ExtractOptions{})
		flushed := ner.ExtractSpans(t, accepted, ner.ExtractOptions{FlushTrailing: true})

		d := treeDump{
			Sentence: i,
			Tokens:   t.Tokens(),
			Spans:    kept,
		}

		// flushing only ever appends after the spans kept by default
		if len(flushed) > len(kept) {
			d.Trailing = flushed[len(kept):]
		}

		dumps = append(dumps, d)
	}

	return dumps
}

var debugTreeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Parse chunked trees and print what the extractor sees, as JSON",
	Long: `Reads parse trees from a file or from standard input and prints, for every
sentence, its tokens, the spans kept with the default options and the spans
that only appear when the trailing run is flushed.

Example:
  echo '(S is/VBZ (GPE New/NNP York/NNP))' | nermap debug tree --tags GPE`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin

		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			r = f
		} else if isatty.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(os.Stderr, "Reading from stdin. Paste trees and press Ctrl+D to finish.")
		}

		trees, err := ner.ParseTrees(r)
		if err != nil {
			return err
		}

		output, err := json.MarshalIndent(dumpTrees(trees, cfg.TagSet()), "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling json: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(output))

		return nil
	},
}
