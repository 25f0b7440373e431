package utils

import (
	"encoding/csv"
	"io"
	"strings"
)

// formulaPrefixes start a cell a spreadsheet would evaluate
const formulaPrefixes = "=+-@\t\r"

// EscapeCell prefixes a cell that would be read as a formula with a quote
func EscapeCell(value string) string {
	if value != "" && strings.ContainsRune(formulaPrefixes, rune(value[0])) {
		return "'" + value
	}
	return value
}

// WriteCSV writes header followed by rows and flushes the writer. Every
// cell goes through EscapeCell.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(escapeRow(header)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(escapeRow(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func escapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCell(cell)
	}
	return escaped
}
