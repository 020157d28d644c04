package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	cases := []struct {
		layout string
		value  string
		expect time.Time
	}{
		{
			// winter, CET (+01:00)
			layout: "2.1.2006 15:04",
			value:  "15.1.2024 10:00",
			expect: time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			// summer, CEST (+02:00)
			layout: "2.1.2006 15:04",
			value:  "3.6.2024 8:15",
			expect: time.Date(2024, time.June, 3, 6, 15, 0, 0, time.UTC),
		},
	}

	for _, c := range cases {
		got, err := ParseLocal(c.layout, c.value)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, c.expect, got)
		require.Equal(t, time.UTC, got.Location())
	}
}

func TestParseLocalRejectsGarbage(t *testing.T) {
	_, err := ParseLocal("2.1.2006 15:04", "not a date")
	require.Error(t, err)
}
