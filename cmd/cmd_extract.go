// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/nermap/ner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	extractFlushTrailing    bool
	extractResetOnDuplicate bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [trees.txt]",
	Short: "Extract entities from chunked parse trees",
	Long: `Reads parse trees in bracketed notation, one sentence per tree, and prints the
entities whose label is one of --tags as a CSV that plot understands.

$ echo '(S (GPE New/NNP) (GPE York/NNP) is/VBZ big/JJ)' | nermap extract --tags GPE
entity,type,sentence
New York,GPE,0
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin

		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			in = f
		} else if isatty.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter parse trees, Ctrl-D to finish…")
		}

		trees, err := ner.ParseTrees(in)
		if err != nil {
			return err
		}

		records := ner.TreeRecords(trees, cfg.TagSet(), ner.ExtractOptions{
			FlushTrailing:    extractFlushTrailing,
			ResetOnDuplicate: extractResetOnDuplicate,
		})

		logger.Info().Int("sentences", len(trees)).Int("entities", len(records)).Msg("extracted entities")

		return writeRecords(cmd.OutOrStdout(), records)
	},
}

func writeRecords(w io.Writer, records []ner.EntityRecord) error {
	out := csv.NewWriter(w)

	if err := out.Write([]string{ner.EntityColumn, ner.TypeColumn, "sentence"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range records {
		if err := out.Write([]string{r.Name, r.Type, r.Source["sentence"]}); err != nil {
			return fmt.Errorf("writing %s: %w", r.Name, err)
		}
	}

	out.Flush()

	return out.Error()
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&extractFlushTrailing, "flush-trailing", false, "keep an entity that ends the sentence")
	extractCmd.Flags().BoolVar(&extractResetOnDuplicate, "reset-duplicates", false,
		"start a new entity after a repeated one instead of extending it")
}
