package cmd

import (
	"fmt"
	"strconv"

	"urnik-backend/lib/bus"
	"urnik-backend/lib/serviceutil"
	"urnik-backend/lib/sqliteutil"
	"urnik-backend/services/timetable"
	"urnik-backend/services/timetable/db"

	"github.com/spf13/cobra"
)

// parseCmd reruns the parse half of the pipeline against a workbook
// already on disk. Useful after changing the extraction config, when
// nothing was fetched but everything should be re-read.
var parseCmd = &cobra.Command{
	Use:   "parse <workbook.xlsx> <program> <grade> <group>",
	Short: "Parse one workbook file into the database without fetching.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("grade must be a number: %w", err)
		}

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
		parser := timetable.NewParser(store, timetable.NewExtractor(config.Extract))
		parser.HandleFileUpdated(bus.FileUpdated{
			Path:       args[0],
			CourseCode: args[1],
			Grade:      grade,
			GroupLabel: args[3],
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
