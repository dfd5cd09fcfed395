package cmd

import (
	"github.com/spf13/cobra"
)

func newPreprocessCmd(a *app) *cobra.Command {
	var (
		input   string
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Normalise the raw corpus into a JSON-lines collection",
		Long: `Lowercase, strip punctuation, remove stopwords and stem every document
of the raw corpus, then write the result as JSON lines for the indexer.

Without --input the built-in 15-document sample corpus is used.`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				input = a.cfg.Corpus.RawPath
			}
			if output == "" {
				output = a.cfg.Corpus.JSONLPath
			}
			raws, err := loadRaw(a, input)
			if err != nil {
				return err
			}
			_, err = preprocessStep(a, raws, output, verbose)
			return err
		}),
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Raw corpus as JSON lines (default: corpus.rawPath or the sample corpus)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Processed JSON-lines file (default: corpus.jsonlPath)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every preprocessing step for every document")
	return cmd
}
