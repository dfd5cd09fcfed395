package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/verifier"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ui"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return usageErrorf("unknown format %q (want %s or %s)", format, formatText, formatJSON)
	}
}

func usageErrorf(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrInvalidArgument, apperrors.ExitUsage, format, args...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult prints the ids and match count of one query. Results are
// shown as a list followed by the total, or "No matches found".
func printResult(p *ui.Printer, res *executor.Result) {
	if res.TotalHits == 0 {
		p.Printf("%s %s\n", p.Styles().Label.Render("Results:"), "No matches found")
		return
	}
	p.Printf("%s %s\n", p.Styles().Label.Render("Results:"), p.IDs(res.DocIDs))
	if len(res.DocIDs) < res.TotalHits {
		p.Dim("(showing %d of %d)", len(res.DocIDs), res.TotalHits)
	}
	source := "index"
	if res.Cached {
		source = "cache"
	}
	p.Printf("%s %d %s\n",
		p.Styles().Label.Render("Total matches:"),
		res.TotalHits,
		p.Styles().Dim.Render(fmt.Sprintf("(%s, %s)", source, res.Took.Round(time.Microsecond))))
}

func printVerification(p *ui.Printer, report verifier.Report) {
	if report.Correct {
		p.Success("Verified against %d documents: correct", report.Checked)
		return
	}
	p.Error("Verification failed against %d documents", report.Checked)
	for _, issue := range report.Issues {
		p.Printf("  %s\n", issue)
	}
}

// printBattery renders every battery query with its expected and actual
// ids and a final success rate.
func printBattery(p *ui.Printer, report *verifier.BatteryReport) {
	p.Header("Test queries")
	for i, r := range report.Results {
		p.Println()
		p.Printf("%s %s\n", p.Styles().Label.Render(fmt.Sprintf("Query %d:", i+1)), p.Styles().Term.Render(r.Query))
		if r.Error != "" {
			p.Error("  %s", r.Error)
			continue
		}
		p.Printf("  canonical: %s\n", r.Result.Canonical)
		p.Printf("  results:   %s (%d)\n", p.IDs(r.Result.DocIDs), r.Result.TotalHits)
		if r.Expected != nil {
			p.Printf("  expected:  %s\n", p.IDs(r.Expected))
		}
		if r.Passed {
			p.Success("  PASS")
			continue
		}
		if !r.MatchesExpected {
			p.Error("  FAIL: results differ from expected")
		}
		for _, issue := range r.Verification.Issues {
			p.Error("  FAIL: %s", issue)
		}
	}
	p.Println()
	summary := fmt.Sprintf("%d/%d queries passed (%.1f%%)", report.Passed, report.Total, report.SuccessRate())
	if report.Passed == report.Total {
		p.Success("%s", summary)
	} else {
		p.Warn("%s", summary)
	}
}
