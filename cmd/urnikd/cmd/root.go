package cmd

import (
	"fmt"
	"os"

	"urnik-backend/lib/browser"
	"urnik-backend/lib/configutil"
	"urnik-backend/services/timetable"

	"github.com/spf13/cobra"
)

type Config struct {
	Debug bool `json:"debug"`
	// Database is the sqlite file; ":memory:" works for local runs.
	Database string `json:"database"`
	// NatsUrl connects fetching and parsing through a NATS server.
	// Empty keeps both in one process over the in-memory bus.
	NatsUrl string `json:"nats_url"`

	Portal  timetable.PortalOptions `json:"portal"`
	Browser browser.ChromeOptions   `json:"browser"`
	Fetch   timetable.FetchConfig   `json:"fetch"`
	Sweep   timetable.SweepConfig   `json:"sweep"`
	// Extract carries the export's locale: weekday names, the header
	// marker token and the date/time layout. Unset fields fall back to
	// the Slovene portal's values.
	Extract timetable.ExtractConfig `json:"extract"`
}

func readConfig() (Config, error) {
	return configutil.ReadRecursively[Config]("urnikd.json5")
}

var rootCmd = &cobra.Command{
	Use:   "urnikd",
	Short: "urnikd keeps university timetable exports mirrored into a local database.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
