package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": Version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vl %s\n", Version)
			return nil
		},
	}
}
