package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/verifier"
)

type queryOptions struct {
	explain bool
	verify  bool
	format  string
	limit   int
}

// queryOutput is the JSON shape of one answered query.
type queryOutput struct {
	*executor.Result
	Explanation  string           `json:"explanation,omitempty"`
	Verification *verifier.Report `json:"verification,omitempty"`
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Evaluate one boolean query against the index",
		Long: `Evaluate a boolean query and print the matching document ids.

Operators are AND, OR and NOT (any case) with precedence NOT > AND > OR.
Parentheses group sub-expressions; adjacent terms are joined with AND.
Query words go through the same preprocessing as the documents.`,
		Example: `  boolir search "dog AND cat"
  boolir search --explain "(dog OR cat) AND NOT mouse"
  boolir search --format json --limit -1 "NOT dog"`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			svc, err := a.searcher(cmd.Context())
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), a, svc, strings.Join(args, " "), opts)
		}),
	}

	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Describe how the query was evaluated")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Check the result against every document's terms")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text or json")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum ids to print (0 uses search.maxResults, -1 prints all)")

	return cmd
}

// runQuery answers one query and prints it in the requested format.
func runQuery(ctx context.Context, a *app, svc *searcher.Service, query string, opts *queryOptions) error {
	res, err := svc.Search(ctx, query, opts.limit)
	if err != nil {
		return err
	}
	out := queryOutput{Result: res}
	if opts.explain || opts.verify {
		q, err := svc.Parse(query)
		if err != nil {
			return err
		}
		if opts.explain {
			out.Explanation = verifier.Explain(q, res.TermStats, res.TotalHits)
		}
		if opts.verify {
			report, err := svc.Verify(ctx, q)
			if err != nil {
				return err
			}
			out.Verification = &report
		}
	}

	p := a.out
	if opts.format == formatJSON {
		return writeJSON(p.Writer(), out)
	}
	p.Printf("%s %s\n", p.Styles().Label.Render("Searching for:"), p.Styles().Term.Render(query))
	printResult(p, res)
	if out.Explanation != "" {
		p.Panel(out.Explanation)
	}
	if out.Verification != nil {
		printVerification(p, *out.Verification)
	}
	return nil
}
