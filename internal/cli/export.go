package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitlog/internal/kiosk"
)

func newExportCmd() *cobra.Command {
	var rf rangeFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the checksheet workbook",
		Long:  "Writes the one-hot checksheet for a date range as an xlsx workbook.",
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
			path := out
			if path == "" {
				path = kiosk.ExportName(start, end)
			}
			return runExport(cmd, svc, start, end, path)
		},
	}

	rf.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: visitlog_checksheet_<start>_<end>.xlsx)")

	return cmd
}

func runExport(cmd *cobra.Command, svc *kiosk.Service, start, end, path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".vl-export-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	// CreateTemp opens with 0600 and Rename keeps it.
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("setting output mode: %w", err)
	}

	n := svc.Export(context.Background(), start, end, f)
	if cerr := f.Close(); cerr != nil && !n.Failed() {
		return fmt.Errorf("closing output: %w", cerr)
	}
	if err := noticeErr(n); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]string{"path": path, "message": n.Message})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nWrote %s\n", n.Message, path)
	return nil
}
