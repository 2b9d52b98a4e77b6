package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Show or delete a single visit record",
	}

	cmd.AddCommand(newRecordShowCmd(), newRecordDeleteCmd())
	return cmd
}

func newRecordShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visit record",
		Args:  cobra.ExactArgs(1),
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

			form, n := svc.Fetch(context.Background(), args[0])
			if err := noticeErr(n); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), form)
			}
			printEditForm(cmd.OutOrStdout(), form)
			return nil
		},
	}
}

func newRecordDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a visit record",
		Args:  cobra.ExactArgs(1),
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

			n := svc.Delete(context.Background(), args[0])
			if err := noticeErr(n); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "deleted", "id": args[0]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.Message)
			return nil
		},
	}
}
