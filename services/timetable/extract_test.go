package timetable

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testTarget() Target {
	return Target{CourseCode: "RIT", Grade: 2, Project: "redni", GroupLabel: "G1"}
}

func extract(t *testing.T, rows [][]string, target Target) ([]SessionRecord, Stats) {
	t.Helper()
	e := NewExtractor(DefaultExtractConfig())
	return e.Extract(context.Background(), rows, target)
}

func TestExtractWorksheetScenario(t *testing.T) {
	rows := [][]string{
		{"Urnik za program RIT"},
		{},
		{"izvoz 15.1.2024"},
		{},
		{"Algorithms"},
		{"DAN", "DATUM", "URA", "PROSTOR", "TIP", "SKUPINE", "IZVAJALEC"},
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "P-101", "RV", "G1 VS A, G1 VS B", "J. Novak"},
		{"PONEDELJEK", "22.1.2024", "10:00-12:00", "P-101", "RV", "G1 VS A, G1 VS B", "J. Novak"},
		{"PONEDELJEK", "29.1.2024", "10:00-12:00", "P-101", "RV", "G1 VS A, G1 VS B", "J. Novak"},
	}

	records, stats := extract(t, rows, testTarget())

	// 3 rows, each fanning out to sub-groups A and B
	require.Len(t, records, 6)
	require.Equal(t, 6, stats.Sessions)
	require.Equal(t, 1, stats.Classes)
	require.Equal(t, 0, stats.RowErrors)

	for _, r := range records {
		require.Equal(t, "Algorithms", r.ClassName)
		require.Equal(t, ComputerExercise, r.Type)
		require.Equal(t, "P-101", r.Room)
		require.Equal(t, "J. Novak", r.Instructor)
	}
	require.Equal(t, "A", records[0].GroupName)
	require.Equal(t, "B", records[1].GroupName)

	// 15.1.2024 10:00 CET is 09:00 UTC
	require.Equal(t, time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC), records[0].StartAt)
	require.Equal(t, time.Date(2024, time.January, 15, 11, 0, 0, 0, time.UTC), records[0].FinishAt)
}

func TestNewExtractorFillsDefaults(t *testing.T) {
	e := NewExtractor(ExtractConfig{FirstDataRow: 2})

	require.Equal(t, "DAN", e.cfg.MarkerToken)
	require.Equal(t, "2.1.2006 15:04", e.cfg.DateTimeLayout)
	require.Contains(t, e.cfg.Weekdays, "PONEDELJEK")
	require.Equal(t, 2, e.cfg.FirstDataRow)
}

func TestExtractHonorsConfiguredLocale(t *testing.T) {
	e := NewExtractor(ExtractConfig{
		MarkerToken:    "DAY",
		Weekdays:       []string{"MONDAY", "TUESDAY"},
		DateTimeLayout: "2006-01-02 15:04",
	})
	rows := [][]string{
		{"Algorithms"},
		{"DAY", "DATE", "TIME", "ROOM", "TYPE", "GROUPS", "INSTRUCTOR"},
		{"MONDAY", "2024-01-15", "10:00-12:00", "P-101", "PR", "G1", "J. Novak"},
	}

	records, stats := e.Extract(context.Background(), rows, testTarget())

	require.Len(t, records, 1)
	require.Equal(t, 1, stats.Sessions)
	require.Equal(t, "Algorithms", records[0].ClassName)
	require.Equal(t, Lecture, records[0].Type)
	require.Equal(t, time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC), records[0].StartAt)
}

func TestExtractSessionBeforeAnyHeaderIsSkipped(t *testing.T) {
	rows := [][]string{
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "P-101", "PR", "G1", "J. Novak"},
		{"Algorithms"},
		{"DAN"},
		{"TOREK", "16.1.2024", "8:00-10:00", "P-101", "PR", "G1", "J. Novak"},
	}

	records, stats := extract(t, rows, testTarget())

	require.Len(t, records, 1)
	require.Equal(t, 1, stats.SkippedNoClass)
}

func TestExtractHeaderWithBlankNameFailsRow(t *testing.T) {
	rows := [][]string{
		{"Algorithms"},
		{"DAN"},
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "P-101", "PR", "G1", "J. Novak"},
		{"   "},
		{"DAN"},
		{"TOREK", "16.1.2024", "8:00-10:00", "P-101", "PR", "G1", "J. Novak"},
	}

	records, stats := extract(t, rows, testTarget())

	// the second block has no name, its session cannot be attributed
	require.Len(t, records, 1)
	require.Equal(t, "Algorithms", records[0].ClassName)
	require.Equal(t, 1, stats.RowErrors)
	require.Equal(t, 1, stats.SkippedNoClass)
}

func TestExtractRowErrorsDoNotAbortTheFile(t *testing.T) {
	rows := [][]string{
		{"Algorithms"},
		{"DAN"},
		{"PONEDELJEK", "garbage", "10:00-12:00", "P-101", "PR", "G1", "J. Novak"},
		{"PONEDELJEK", "15.1.2024", "10:00", "P-101", "PR", "G1", "J. Novak"},
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "", "PR", "G1", "J. Novak"},
		{"PONEDELJEK", "15.1.2024", "10:00-12:00", "P-101", "PR", "G1", "J. Novak"},
	}

	records, stats := extract(t, rows, testTarget())

	require.Len(t, records, 1)
	require.Equal(t, 3, stats.RowErrors)
}

func TestMatchGroupsFilter(t *testing.T) {
	// entries for other labels never produce a session
	got := matchGroups("G2 VS A, G3, G1 VS C", "G1", ComputerExercise)
	require.Equal(t, []string{"C"}, got)

	require.Empty(t, matchGroups("G2 VS A; G3", "G1", Lecture))
}

func TestMatchGroupsAsymmetry(t *testing.T) {
	cases := []struct {
		sessionType SessionType
		want        []string
	}{
		{Lecture, []string{"X", "X"}},
		{SeminarExercise, []string{"X", "X"}},
		{ComputerExercise, []string{"Y", "Z"}},
		{LabExercise, []string{"Y", "Z"}},
		{Other, []string{"Y", "Z"}},
	}

	for _, c := range cases {
		got := matchGroups("X VS Y, X VS Z", "X", c.sessionType)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Fatalf("%s groups mismatch (-want +got):\n%s", c.sessionType, diff)
		}
	}
}

func TestMatchGroupsWithoutSubGroup(t *testing.T) {
	// an exercise entry with no VS part falls back to the cohort label
	require.Equal(t, []string{"G1"}, matchGroups("G1", "G1", LabExercise))
	require.Equal(t, []string{"G1"}, matchGroups("G1", "G1", Lecture))
}

func TestMatchGroupsMixedDelimiters(t *testing.T) {
	got := matchGroups("G1 VS A; G1 VS B / G1 VS C", "G1", ComputerExercise)
	require.Equal(t, []string{"A", "B", "C"}, got)
}

func TestExtractIsDeterministic(t *testing.T) {
	rows := [][]string{
		{"Algorithms"},
		{"DAN"},
		{"SREDA", "17.1.2024", "12:00-14:00", "P-204", "SV", "G1 VS A", "M. Kovač"},
	}

	first, _ := extract(t, rows, testTarget())
	second, _ := extract(t, rows, testTarget())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two passes over the same sheet disagree:\n%s", diff)
	}
	// seminar exercises keep the cohort label, not the sub-group
	require.Equal(t, "G1", first[0].GroupName)
}
