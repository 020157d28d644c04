package timetable

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// The export pads the sheet with spacer columns whose position varies
// between regenerations. A column that never accumulates this many
// non-blank cells is treated as structural padding and dropped before
// any fixed-offset read.
const emptyColumnThreshold = 10

// ReadWorkbook loads the first sheet of an exported workbook as raw
// rows. Formula cells come back as their cached results, so a formula
// evaluating to nothing counts as blank downstream.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func isBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// EmptyColumns returns the indices of structurally empty columns,
// scanning each column downward from fromRow and giving up on a column
// as soon as it proves itself non-empty.
func EmptyColumns(rows [][]string, fromRow int) []int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var empty []int
	for col := 0; col < width; col++ {
		filled := 0
		for r := fromRow; r < len(rows); r++ {
			row := rows[r]
			if col < len(row) && !isBlank(row[col]) {
				filled++
				if filled >= emptyColumnThreshold {
					break
				}
			}
		}
		if filled < emptyColumnThreshold {
			empty = append(empty, col)
		}
	}
	return empty
}

// RemoveColumns returns a copy of rows without the given columns. The
// input is never mutated; every surviving cell keeps its value and its
// order, so fixed offsets to the left of a removed column read the
// same before and after.
func RemoveColumns(rows [][]string, cols []int) [][]string {
	if len(cols) == 0 {
		out := make([][]string, len(rows))
		for i, row := range rows {
			out[i] = append([]string(nil), row...)
		}
		return out
	}

	drop := make(map[int]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		kept := make([]string, 0, len(row))
		for c, cell := range row {
			if !drop[c] {
				kept = append(kept, cell)
			}
		}
		out[i] = kept
	}
	return out
}

// Normalize is the full pre-parse cleanup: drop structurally empty
// columns so the session-row offsets line up.
func Normalize(rows [][]string, fromRow int) [][]string {
	return RemoveColumns(rows, EmptyColumns(rows, fromRow))
}
