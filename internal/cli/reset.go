package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record and restart numbering",
		Long:  "Deletes all visit records and resets the id sequence so the next record is 1. The admin password must be given twice.",
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

			n := svc.Reset(context.Background(), password, confirm)
			if err := noticeErr(n); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "reset"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "admin password again")

	return cmd
}
