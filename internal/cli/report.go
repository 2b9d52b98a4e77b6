package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// rangeFlags holds --start and --end. Empty values mean month to date.
type rangeFlags struct {
	start string
	end   string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD (default: first of this month)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD (default: today)")
}

func (f *rangeFlags) resolve(defStart, defEnd string) (string, string) {
	start, end := f.start, f.end
	if start == "" {
		start = defStart
	}
	if end == "" {
		end = defEnd
	}
	return start, end
}

func newReportCmd() *cobra.Command {
	var rf rangeFlags
	var records bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show visit ratios and daily counts",
		Long:  "Prints the daily visitor series, the summary and the ratio tables for a date range. The configured weekday is left out of the daily counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			database, svc, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeDB(database)

			start, end := rf.resolve(svc.MonthToDate())
			rep, n := svc.Report(context.Background(), start, end)
			if err := noticeErr(n); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, rep)
			}
			if err := printReport(out, rep); err != nil {
				return err
			}
			if records {
				return printRecordTable(out, rep.Records)
			}
			return nil
		},
	}

	rf.bind(cmd)
	cmd.Flags().BoolVar(&records, "records", false, "also list the raw records")

	return cmd
}
