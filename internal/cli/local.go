package cli

import (
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/local"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

func localCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "local",
		Short: "Show the version of the machine running sysvers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := local.Version(cmd.Context())
			if err != nil {
				logger.Errorf("Local version check failed: %v", err)
				a.printf("Failed to determine local system version.\n")
				return errFailed
			}
			a.printf("Local System Version: %s\n", v)
			return nil
		},
	}
}
