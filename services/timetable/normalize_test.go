package timetable

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// builds rows where the named columns hold `fill` non-blank cells and
// every other column is fully populated
func rowsWithSparseColumns(width, height int, sparse map[int]int) [][]string {
	rows := make([][]string, height)
	for r := range rows {
		row := make([]string, width)
		for c := range row {
			if n, ok := sparse[c]; ok {
				if r < n {
					row[c] = "x"
				} else {
					row[c] = "   " // whitespace counts as blank
				}
			} else {
				row[c] = "v"
			}
		}
		rows[r] = row
	}
	return rows
}

func TestEmptyColumnsThreshold(t *testing.T) {
	// col 2 has 9 filled cells (below threshold), col 4 has 10 (at it)
	rows := rowsWithSparseColumns(6, 30, map[int]int{2: 9, 4: 10})

	empty := EmptyColumns(rows, 0)
	require.Equal(t, []int{2}, empty)
}

func TestEmptyColumnsRespectsFromRow(t *testing.T) {
	// col 1 is filled only in the top 12 rows; scanning from row 5
	// leaves 7 filled cells, under the threshold
	rows := rowsWithSparseColumns(3, 40, map[int]int{1: 12})

	require.Empty(t, EmptyColumns(rows, 0))
	require.Equal(t, []int{1}, EmptyColumns(rows, 5))
}

func TestRemoveColumnsPreservesFixedOffsets(t *testing.T) {
	rows := [][]string{
		{"PONEDELJEK", "15.1.2024", "", "10:00-12:00", "P-101"},
		{"TOREK", "16.1.2024", "", "8:00-9:30", "P-204"},
	}

	got := RemoveColumns(rows, []int{2})

	want := [][]string{
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "P-101"},
		{"TOREK", "16.1.2024", "8:00-9:30", "P-204"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized rows mismatch (-want +got):\n%s", diff)
	}

	// columns left of the removed one are untouched
	for r := range rows {
		require.Equal(t, rows[r][0], got[r][0])
		require.Equal(t, rows[r][1], got[r][1])
	}
}

func TestRemoveColumnsDoesNotMutateInput(t *testing.T) {
	rows := [][]string{{"a", "b", "c"}}
	_ = RemoveColumns(rows, []int{1})
	require.Equal(t, [][]string{{"a", "b", "c"}}, rows)
}

func TestReadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Algoritmi"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "DAN"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "DATUM"))

	path := filepath.Join(t.TempDir(), "RIT-2.xlsx")
	require.NoError(t, f.SaveAs(path))

	rows, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	require.Equal(t, "Algoritmi", rows[0][0])
	require.Equal(t, "DAN", rows[1][0])
}

func TestReadWorkbookMissingFile(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}
