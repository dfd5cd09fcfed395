package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer"
)

type termEntry struct {
	Term     string   `json:"term"`
	DocFreq  int      `json:"doc_freq"`
	Postings []string `json:"postings,omitempty"`
}

func newTermsCmd(a *app) *cobra.Command {
	var (
		prefix   string
		format   string
		postings bool
	)

	cmd := &cobra.Command{
		Use:   "terms [word]",
		Short: "Print the inverted index",
		Long: `Print every indexed term with its document frequency and, with
--postings, the ids of the documents containing it.

Given a word, print the posting list of that word after preprocessing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			svc, err := a.searcher(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				term, ids, err := svc.Postings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entry := termEntry{Term: term, DocFreq: len(ids), Postings: ids}
				if format == formatJSON {
					return writeJSON(a.out.Writer(), entry)
				}
				if term == "" {
					a.out.Warn("%q is removed by preprocessing and matches no document", args[0])
					return nil
				}
				p := a.out
				p.Printf("%s -> %s (%d)\n", p.Styles().Term.Render(term), p.IDs(ids), len(ids))
				return nil
			}
			if format == formatJSON {
				entries, err := collectTerms(cmd.Context(), svc.Store(), prefix, postings)
				if err != nil {
					return err
				}
				return writeJSON(a.out.Writer(), entries)
			}
			return printTerms(cmd.Context(), a, svc.Store(), prefix, postings)
		}),
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Only terms starting with this prefix")
	cmd.Flags().BoolVar(&postings, "postings", false, "Include the posting list of every term")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	return cmd
}

func collectTerms(ctx context.Context, store indexer.Store, prefix string, withPostings bool) ([]termEntry, error) {
	infos, err := store.Terms(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]termEntry, 0, len(infos))
	for _, info := range infos {
		if !strings.HasPrefix(info.Term, prefix) {
			continue
		}
		entry := termEntry{Term: info.Term, DocFreq: info.DocFreq}
		if withPostings {
			if entry.Postings, err = store.Postings(ctx, info.Term); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func printTerms(ctx context.Context, a *app, store indexer.Store, prefix string, withPostings bool) error {
	entries, err := collectTerms(ctx, store, prefix, withPostings)
	if err != nil {
		return err
	}
	p := a.out
	for _, e := range entries {
		if withPostings {
			p.Printf("  %-16s %3d  %s\n", e.Term, e.DocFreq, p.IDs(e.Postings))
		} else {
			p.Printf("  %-16s %3d\n", e.Term, e.DocFreq)
		}
	}
	p.Dim("%d terms", len(entries))
	return nil
}
