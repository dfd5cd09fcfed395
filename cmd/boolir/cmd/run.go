package cmd

import (
	"github.com/spf13/cobra"
)

type runOptions struct {
	input   string
	noREPL  bool
	verbose bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "Raw corpus as JSON lines (default: corpus.rawPath or the sample corpus)")
	cmd.Flags().BoolVar(&o.noREPL, "no-repl", false, "Stop after the test queries")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Print every preprocessing step")
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Preprocess, index, run the test queries and open the prompt",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, a, opts)
		}),
	}
	opts.bind(cmd)
	return cmd
}

// runPipeline executes every stage in order: preprocessing, indexing, the
// test battery and, unless disabled, the interactive prompt.
func runPipeline(cmd *cobra.Command, a *app, opts *runOptions) error {
	ctx := cmd.Context()
	p := a.out
	p.Header("BOOLEAN RETRIEVAL")

	input := opts.input
	if input == "" {
		input = a.cfg.Corpus.RawPath
	}
	p.Println()
	p.Header("Step 1: document preprocessing")
	raws, err := loadRaw(a, input)
	if err != nil {
		return err
	}
	if _, err := preprocessStep(a, raws, a.cfg.Corpus.JSONLPath, opts.verbose); err != nil {
		return err
	}

	p.Println()
	p.Header("Step 2: indexing")
	if _, err := indexStep(ctx, a, a.cfg.Corpus.JSONLPath); err != nil {
		return err
	}

	p.Println()
	p.Header("Step 3: boolean retrieval")
	svc, err := a.searcher(ctx)
	if err != nil {
		return err
	}
	// The built-in test queries only have known answers for the sample
	// corpus.
	if input == "" {
		report, err := svc.RunBattery(ctx, nil)
		if err != nil {
			return err
		}
		printBattery(p, report)
	}

	if opts.noREPL {
		return nil
	}
	return runREPL(ctx, a, svc, cmd.InOrStdin(), &queryOptions{format: formatText})
}
