// Package formatter provides markdown table rendering and alignment.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Leanito/Leadsrecptives/pkg/metadata"
)

// minColumnWidth keeps separators at least "---" wide.
const minColumnWidth = 3

// RenderTable builds an aligned markdown table. Rows shorter than headers
// are padded with empty cells; pipes inside cells are escaped.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	table := make([][]string, 0, len(rows)+1)
	table = append(table, escapeCells(headers))

	for _, row := range rows {
		table = append(table, escapeCells(row))
	}

	return strings.Join(alignTable(table, len(headers)), "\n")
}

// FormatMarkdown realigns every table in a markdown document. A metadata
// block, if present, is stripped before formatting and re-signed after.
func FormatMarkdown(content string) (string, error) {
	meta, cleanContent := metadata.Extract(content)

	lines := strings.Split(cleanContent, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		// A table row starts and ends with a pipe
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	formattedContent := strings.Join(formattedLines, "\n")

	if meta == nil {
		return formattedContent, nil
	}

	return metadata.Sign(formattedContent, meta.Info()), nil
}

func processTable(rows []string) []string {
	// Header and separator at minimum
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	if !isSeparator(table[1]) {
		return rows
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	body := append([][]string{table[0]}, table[2:]...)

	return alignTable(body, colCount)
}

// splitRow splits "| a | b |" into trimmed cells, honoring escaped pipes.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	var cells []string

	var sb strings.Builder

	escaped := false

	for _, r := range row {
		switch {
		case escaped:
			sb.WriteRune(r)

			escaped = false
		case r == '\\':
			sb.WriteRune(r)

			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}

	return append(cells, strings.TrimSpace(sb.String()))
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			return false
		}
	}

	return len(cells) > 0
}

// alignTable renders rows (header first) padded to display width, with a
// separator line inserted after the header.
func alignTable(table [][]string, colCount int) []string {
	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = minColumnWidth
	}

	for _, row := range table {
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			separator := make([]string, colCount)
			for j, w := range colWidths {
				separator[j] = strings.Repeat("-", w)
			}

			result = append(result, renderRow(separator, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func escapeCells(cells []string) []string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}

	return escaped
}
