// Package cli defines the cobra command tree for vl.
package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitlog/internal/kiosk"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vl",
		Short:         "Record and report facility visits",
		Long:          "A visitor log for a community facility. Visitors fill in a kiosk form; admins review ratios and daily counts and export a checksheet workbook.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: <data dir>/visitlog.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")

	root.AddCommand(
		newServeCmd(),
		newReportCmd(),
		newExportCmd(),
		newRecordCmd(),
		newResetCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// noticeErr turns a failed notice into an error.
func noticeErr(n kiosk.Notice) error {
	if !n.Failed() {
		return nil
	}
	return errors.New(n.Message)
}
