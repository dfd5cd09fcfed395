package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/health"
)

type statusOutput struct {
	Health health.Report  `json:"health"`
	Index  *indexer.Stats `json:"index,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and the health of configured services",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			a.connect(ctx)

			out := statusOutput{}
			if store, err := a.openStore(); err == nil {
				if stats, err := store.Stats(ctx); err == nil {
					out.Index = &stats
				}
			}
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			out.Health = a.checker.Run(checkCtx)

			if format == formatJSON {
				if err := writeJSON(a.out.Writer(), out); err != nil {
					return err
				}
			} else {
				printStatus(a, out)
			}
			if out.Health.Status == health.StatusDown {
				return apperrors.New(apperrors.ErrUnavailable, apperrors.ExitFailure, "a required component is down")
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	return cmd
}

func printStatus(a *app, out statusOutput) {
	p := a.out
	if s := out.Index; s != nil {
		p.Header("Index")
		p.KV("path", s.Path)
		p.KV("backend", s.Backend)
		p.KV("generation", s.Generation)
		if s.Stemmer != "" {
			p.KV("stemmer", s.Stemmer)
		}
		p.KV("documents", s.Documents)
		p.KV("unique terms", s.UniqueTerms)
		p.KV("total terms", s.TotalTerms)
		p.KV("built at", s.BuiltAt.Local().Format(time.DateTime))
	}

	p.Header("Health: " + string(out.Health.Status))
	for _, name := range out.Health.Names() {
		c := out.Health.Components[name]
		line := string(c.Status)
		if c.Message != "" {
			line += "  " + c.Message
		}
		switch c.Status {
		case health.StatusUp:
			p.Printf("  %-10s %s\n", name, p.Styles().Success.Render(line))
		case health.StatusDisabled:
			p.Printf("  %-10s %s\n", name, p.Styles().Dim.Render(line))
		case health.StatusDegraded:
			p.Printf("  %-10s %s\n", name, p.Styles().Warning.Render(line))
		default:
			p.Printf("  %-10s %s\n", name, p.Styles().Error.Render(line))
		}
	}
}
