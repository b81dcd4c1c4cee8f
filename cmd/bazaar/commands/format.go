package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/runlog"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/internal/tui"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var (
	headerCell = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
	numberCell = cell.Align(lipgloss.Right)

	classStyles = map[contracts.MarginClass]lipgloss.Style{
		contracts.MarginPositive: numberCell.Foreground(lipgloss.Color("#04B575")),
		contracts.MarginNegative: numberCell.Foreground(lipgloss.Color("#FF5F87")),
		contracts.MarginNeutral:  numberCell,
	}
)

// printHeader prints a formatted section header
func printHeader(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", title)
	if len(lines) > 0 {
		fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
		for _, line := range lines {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// printMarket prints the ranked view; limit <= 0 prints every row
func printMarket(w io.Writer, u tracker.Update, limit int) {
	lines := []string{
		fmt.Sprintf("Cycle     : %s", u.CycleID),
		fmt.Sprintf("Sort      : %s", u.SortKey),
	}
	if u.SearchTerm != "" {
		lines = append(lines, fmt.Sprintf("Search    : %q", u.SearchTerm))
	}
	if s := u.Stats; s != nil {
		lines = append(lines,
			fmt.Sprintf("Items     : %s", humanize.Comma(int64(s.TotalItems))),
			fmt.Sprintf("Avg margin: %.2f%%", s.AvgProfitMargin),
			fmt.Sprintf("Top margin: %.2f%%", s.TopProfitMargin),
		)
	} else {
		lines = append(lines, "Items     : 0 (no usable quotes)")
	}
	printHeader(w, "Bazaar snapshot", lines...)

	items := u.View
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Item", "Buy", "Sell", "Profit", "Margin", "Volume").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case col == 5 && row >= 0 && row < len(items):
				return classStyles[items[row].MarginClass()]
			case col == 1:
				return cell
			default:
				return numberCell
			}
		})

	for i, item := range items {
		t.Row(
			strconv.Itoa(i+1),
			item.DisplayName,
			tui.FormatCoins(item.BuyPrice),
			tui.FormatCoins(item.SellPrice),
			tui.FormatCoins(item.Profit),
			tui.FormatMargin(item.ProfitMargin),
			humanize.Comma(item.Volume),
		)
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d of %d shown\n", len(items), len(u.View))
}

// printRuns prints recorded refresh cycles newest first
func printRuns(w io.Writer, runs []runlog.Run, now time.Time) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Started", "Trigger", "Outcome", "Duration", "Items", "Skipped", "Error").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})

	for _, r := range runs {
		t.Row(
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Trigger,
			string(r.Outcome),
			r.Duration().Round(time.Millisecond).String(),
			humanize.Comma(int64(r.Items)),
			humanize.Comma(int64(r.Skipped)),
			r.Error,
		)
	}
	fmt.Fprintln(w, t.String())
}
