package cmd

import (
	"context"
	"os"

	"urnik-backend/lib/browser"
	"urnik-backend/lib/bus"
	"urnik-backend/lib/serviceutil"
	"urnik-backend/lib/sqliteutil"
	"urnik-backend/lib/telemetry"
	"urnik-backend/services/timetable"
	"urnik-backend/services/timetable/db"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sweep daemon: fetch every configured target on a schedule and parse what changed.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		config, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		telemetry.InitSlog(config.Debug)

		t, err := telemetry.SetupFromEnv(ctx, "urnikd")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		database, err := sqliteutil.OpenDB(db.Schema, config.Database)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		eventBus, err := openBus(config)
		if err != nil {
			serviceutil.Fatal("failed to connect event bus", err)
		}
		defer eventBus.Close()

		for _, dir := range []string{config.Fetch.DataDir, config.Fetch.ScreenshotDir, config.Browser.DownloadDir} {
			if dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				serviceutil.Fatal("failed to create data directory", err)
			}
		}

		session, err := browser.NewChromeSession(ctx, config.Browser)
		if err != nil {
			serviceutil.Fatal("failed to start browser", err)
		}
		defer session.Close()

		store := timetable.NewStore(database)
		parser := timetable.NewParser(store, timetable.NewExtractor(config.Extract))
		unsubscribe, err := eventBus.Subscribe(parser)
		if err != nil {
			serviceutil.Fatal("failed to subscribe parser", err)
		}
		defer unsubscribe()

		portal, err := timetable.NewPortalClient(config.Portal)
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}

		fetcher := timetable.NewFetcher(config.Fetch, session, eventBus)
		sweeper := timetable.NewSweeper(config.Sweep, portal, fetcher)
		sweeper.Run(ctx)
	},
}

func openBus(config Config) (bus.Bus, error) {
	if config.NatsUrl == "" {
		return bus.NewMemoryBus(), nil
	}
	return bus.NewNatsBus(config.NatsUrl)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
