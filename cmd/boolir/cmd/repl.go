package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
)

const replHelp = `Enter a boolean query, for example:
  dog AND cat
  dog OR short
  (dog OR cat) AND NOT mouse
Commands:
  :explain   toggle query explanations
  :verify    toggle result verification
  :terms [prefix]  list indexed terms
  :stats     show session statistics
  :help      show this help
  quit, exit or q leaves the prompt`

func newReplCmd(a *app) *cobra.Command {
	opts := &queryOptions{format: formatText}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Answer boolean queries interactively",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			svc, err := a.searcher(cmd.Context())
			if err != nil {
				return err
			}
			return runREPL(cmd.Context(), a, svc, cmd.InOrStdin(), opts)
		}),
	}
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Explain every query")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Verify every result")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum ids to print (0 uses search.maxResults, -1 prints all)")
	return cmd
}

// maxQueryBytes bounds one line of interactive input.
const maxQueryBytes = 1 << 20

// runREPL reads queries from in until quit, end of input or cancellation.
// Malformed queries are reported and the prompt continues.
func runREPL(ctx context.Context, a *app, svc *searcher.Service, in io.Reader, opts *queryOptions) error {
	p := a.out
	p.Println()
	p.Header("Interactive boolean query mode")
	p.Println("Enter boolean queries (or 'quit' to exit). Type :help for commands.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), maxQueryBytes)
		defer func() { scanErr <- scanner.Err() }()
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		p.Printf("\n%s ", p.Styles().Prompt.Render("Enter query:"))
		var line string
		select {
		case <-ctx.Done():
			p.Println()
			p.Dim("Exiting interactive mode...")
			return nil
		case l, ok := <-lines:
			if !ok {
				p.Println()
				if err := <-scanErr; err != nil {
					return fmt.Errorf("reading queries: %w", err)
				}
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		if strings.HasPrefix(line, ":") {
			if err := replCommand(ctx, a, svc, line, opts); err != nil {
				p.Error("Error: %v", err)
			}
			continue
		}

		err := runQuery(ctx, a, svc, line, opts)
		var syn *parser.SyntaxError
		switch {
		case err == nil:
		case errors.As(err, &syn):
			p.Error("Error: %v", err)
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

func replCommand(ctx context.Context, a *app, svc *searcher.Service, line string, opts *queryOptions) error {
	fields := strings.Fields(line)
	p := a.out
	switch fields[0] {
	case ":help":
		p.Println(replHelp)
	case ":explain":
		opts.explain = !opts.explain
		p.Dim("explanations %s", onOff(opts.explain))
	case ":verify":
		opts.verify = !opts.verify
		p.Dim("verification %s", onOff(opts.verify))
	case ":stats":
		printSessionStats(a, a.aggregator.Stats())
	case ":terms":
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[1]
		}
		return printTerms(ctx, a, svc.Store(), prefix, false)
	default:
		return fmt.Errorf("unknown command %s (try :help)", fields[0])
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printSessionStats(a *app, s analytics.AggregatedStats) {
	p := a.out
	p.Header("Session statistics")
	p.KV("searches", s.TotalSearches)
	p.KV("syntax errors", s.SyntaxErrors)
	p.KV("zero-result searches", s.ZeroResultCount)
	p.KV("cache hits", s.CacheHits)
	p.KV("cache misses", s.CacheMisses)
	p.KV("avg latency", fmt.Sprintf("%.0fµs", s.AvgLatencyUs))
	p.KV("p50 / p95 / p99", fmt.Sprintf("%dµs / %dµs / %dµs", s.P50LatencyUs, s.P95LatencyUs, s.P99LatencyUs))
	p.KV("queries per minute", fmt.Sprintf("%.1f", s.QueriesPerMinute))
	if len(s.TopQueries) > 0 {
		p.Header("Top queries")
		for _, q := range s.TopQueries {
			p.Printf("  %3d  %s\n", q.Count, q.Query)
		}
	}
	if len(s.ZeroResultQueries) > 0 {
		p.Header("Queries without results")
		for _, q := range s.ZeroResultQueries {
			p.Printf("  %3d  %s\n", q.Count, q.Query)
		}
	}
}
