package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/verifier"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		battery string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the test queries against the index",
		Long: `Run a battery of test queries, check every result against the
documents' own terms and compare it with the expected ids.

Without --battery the built-in queries for the sample corpus are used. A
battery file is YAML or JSON: a list of {query, expected} entries.`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			var queries []ingestion.TestQuery
			if battery != "" {
				var err error
				if queries, err = verifier.LoadBattery(battery); err != nil {
					return err
				}
			}
			svc, err := a.searcher(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.RunBattery(cmd.Context(), queries)
			if err != nil {
				return err
			}
			if format == formatJSON {
				if err := writeJSON(a.out.Writer(), report); err != nil {
					return err
				}
			} else {
				printBattery(a.out, report)
			}
			if report.Passed != report.Total {
				return fmt.Errorf("%d of %d test queries failed", report.Total-report.Passed, report.Total)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&battery, "battery", "b", "", "YAML or JSON file of test queries")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	return cmd
}
