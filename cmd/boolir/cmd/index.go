package cmd

import (
	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		input       string
		noOverwrite bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the index from a processed JSON-lines collection",
		Long: `Build the index directory from a JSON-lines collection of processed
documents. Each line is an object with at least "id" and "contents";
malformed lines are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				input = a.cfg.Corpus.JSONLPath
			}
			if noOverwrite {
				a.cfg.Indexer.Overwrite = false
			}
			_, err := indexStep(cmd.Context(), a, input)
			return err
		}),
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Processed JSON-lines file (default: corpus.jsonlPath)")
	cmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "Fail instead of replacing an existing index")
	return cmd
}
