package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	headerCell = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	bodyCell   = lipgloss.NewStyle().Padding(0, 1)
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// newTable returns a borderless table with a rule under the header.
// Columns listed in right are right-aligned.
func newTable(headers []string, right ...int) *table.Table {
	alignRight := make(map[int]bool, len(right))
	for _, c := range right {
		alignRight[c] = true
	}
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(ruleStyle).
		BorderTop(false).BorderBottom(false).
		BorderLeft(false).BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := bodyCell
			if row == table.HeaderRow {
				s = headerCell
			}
			if alignRight[col] {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}

// printTable writes t to stdout, downsampling colors to the terminal.
func printTable(t *table.Table) {
	lipgloss.Println(t.Render())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
