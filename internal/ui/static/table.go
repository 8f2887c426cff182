// Package static provides non-interactive terminal output components.
//
// Everything here renders to a string; callers print it through
// output.Printer.Styled so colors are downsampled for the destination.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/ui/styles"
)

// ResultHeaders are the columns rendered by ResultRow.
var ResultHeaders = []string{"NAME", "KEY", "SOURCE"}

// RenderTable creates a formatted table with proper column alignment.
// Column widths follow the content; no borders are drawn. Returns "" for
// no rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	var output strings.Builder
	output.WriteString(t.String())
	output.WriteString("\n")
	return output.String()
}

// ResultRow formats one resolved item for ResultHeaders.
// name may already carry highlight styling.
func ResultRow(r resolve.Result, name string) []string {
	if name == "" {
		name = r.DisplayName
	}
	// Keep multi-line names on one table row
	name = strings.ReplaceAll(name, "\n", " ")
	key := strings.ReplaceAll(r.Key, "\n", " ")
	return []string{name, styles.MutedStyle.Render(key), styles.FormatSource(r)}
}

// RenderResults renders a batch as a table.
func RenderResults(results []resolve.Result) string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = ResultRow(r, "")
	}
	return RenderTable(ResultHeaders, rows)
}
