package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"urnik-backend/lib/serviceutil"
	"urnik-backend/lib/sqliteutil"
	"urnik-backend/lib/timezone"
	"urnik-backend/services/timetable"
	"urnik-backend/services/timetable/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the configured targets against the portal's live dropdowns.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		database, err := sqliteutil.OpenDB(db.Schema, config.Database)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()
		store := timetable.NewStore(database)

		ctx := context.Background()

		var matrix timetable.OptionMatrix
		portal, err := timetable.NewPortalClient(config.Portal)
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}
		matrix, err = portal.FetchMatrix(ctx)
		if err != nil {
			slog.Warn("portal is unreachable, showing configuration only", "err", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Program", "Grade", "Project", "Group", "Portal option", "Last checked"})

		// the same list the sweeper walks: tracked courses expanded
		// against the live dropdowns, plus any pinned targets
		targets := append(matrix.Expand(config.Sweep.Courses), config.Sweep.Targets...)
		for _, target := range targets {
			option := "?"
			if len(matrix.Programs) > 0 {
				program, err := matrix.Resolve(target)
				if err != nil {
					option = fmt.Sprintf("unresolved: %s", err)
				} else {
					option = program.Label
				}
			}

			lastChecked := "never"
			course, err := store.GetCourse(ctx, target.CourseCode, target.Grade)
			if err == nil && course.LastChecked > 0 {
				lastChecked = time.Unix(course.LastChecked, 0).
					In(timezone.Location).
					Format("2.1.2006 15:04")
			}

			t.AppendRow(table.Row{target.CourseCode, target.Grade, target.Project, target.GroupLabel, option, lastChecked})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
