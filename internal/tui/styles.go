package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wonny/bazaar/internal/contracts"
)

var (
	colorPrimary  = lipgloss.Color("#7D56F4")
	colorPositive = lipgloss.Color("#04B575")
	colorNegative = lipgloss.Color("#FF5F87")
	colorNeutral  = lipgloss.Color("#A8A8A8")
	colorMuted    = lipgloss.Color("#626262")

	titleStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorNegative).Bold(true)
	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	tableBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorMuted)
)

func classColor(c contracts.MarginClass) lipgloss.Color {
	switch c {
	case contracts.MarginPositive:
		return colorPositive
	case contracts.MarginNegative:
		return colorNegative
	default:
		return colorNeutral
	}
}

// tableStyles colours the selected row by the sign of its margin
func tableStyles(c contracts.MarginClass) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(classColor(c)).
		Background(lipgloss.Color("#303030")).
		Bold(true)
	return s
}

// FormatCoins renders a price with thousands separators and two decimals
func FormatCoins(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	s := fmt.Sprintf("%s.%02d", humanize.Comma(cents/100), cents%100)
	if v < 0 && cents > 0 {
		s = "-" + s
	}
	return s
}

// FormatMargin renders a signed percentage
func FormatMargin(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}
