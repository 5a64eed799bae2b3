package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const ruleWidth = 78

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("═", ruleWidth))
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

var (
	opportunityColumns = []string{"#", "SYMBOL", "NAME", "PRICE", "SCORE", "RSI", "52W%", "REV%", "EPS%"}
	opportunityWidths  = []int{3, 7, 26, 9, 6, 6, 6, 6, 6}
)

// PrintRunSummary prints the run counters
func PrintRunSummary(w io.Writer, run *contracts.ScreeningRun, cached bool) {
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  Screening run %s\n", run.RunID)
	PrintSeparator(w)
	PrintKeyValue(w, "Timestamp", run.Timestamp.Local().Format("2006-01-02 15:04:05"), 14)
	PrintKeyValue(w, "Universe", run.Universe.Label(), 14)
	PrintKeyValue(w, "Screened", fmt.Sprintf("%d", run.TotalScreened), 14)
	PrintKeyValue(w, "Candidates", fmt.Sprintf("%d", run.Candidates), 14)
	PrintKeyValue(w, "Passed", fmt.Sprintf("%d", run.PassedFilters), 14)
	PrintKeyValue(w, "Cached", fmt.Sprintf("%t", cached), 14)
	if run.DurationMs > 0 {
		PrintKeyValue(w, "Duration", fmt.Sprintf("%.1fs", float64(run.DurationMs)/1000), 14)
	}
}

// PrintOpportunities prints the ranked shortlist table
func PrintOpportunities(w io.Writer, stocks []contracts.FilterResult) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintln(w, "  TOP OPPORTUNITIES")
	PrintDoubleSeparator(w)

	if len(stocks) == 0 {
		fmt.Fprintln(w, "  No stocks passed all filters.")
		return
	}

	PrintTableRow(w, opportunityColumns, opportunityWidths)
	PrintSeparator(w)
	for _, s := range stocks {
		PrintTableRow(w, []string{
			fmt.Sprintf("%d", s.Rank),
			s.Symbol,
			truncate(s.Name, opportunityWidths[2]),
			fmt.Sprintf("%.2f", s.Price),
			fmt.Sprintf("%.2f", s.CompositeScore),
			formatOptional(s.RSI14, 1, "%.1f"),
			formatOptional(s.PriceVs52wHigh, 100, "%.0f"),
			formatOptional(s.RevenueGrowth, 100, "%.0f"),
			formatOptional(s.EPSGrowth, 100, "%.0f"),
		}, opportunityWidths)
	}
}

// PrintRejections prints per-rule rejection counts in rule order
func PrintRejections(w io.Writer, run *contracts.ScreeningRun) {
	if len(run.Rejections) == 0 && len(run.Skipped) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Rejections")
	PrintSeparator(w)
	for _, rule := range selection.Rules() {
		if n, ok := run.Rejections[string(rule.ID)]; ok {
			PrintKeyValue(w, fmt.Sprintf("%2d %s", rule.Number, rule.ID), fmt.Sprintf("%d", n), 24)
		}
	}

	reasons := make([]string, 0, len(run.Skipped))
	for reason := range run.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		PrintKeyValue(w, "skip "+reason, fmt.Sprintf("%d", run.Skipped[reason]), 24)
	}
}

func formatOptional(p *float64, scale float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p*scale)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
