package cli

import (
	"fmt"

	"github.com/bissquit/uptime-dashboard/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "uptime-dashboard %s (commit %s, built %s)\n",
				info.Version, info.Commit, info.BuildDate)
			return err
		},
	}
}
