package cli

import (
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/simulate"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

func simulateCmd(a *app) *cobra.Command {
	var (
		labPath string
		listen  string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an SSH lab of simulated devices for testing detection",
		Long: "Starts an SSH server where the login username selects a simulated device.\n" +
			"Each device answers version commands the way its family would.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labCfg, err := simulate.LoadConfig(labPath)
			if err != nil {
				return err
			}
			if listen != "" {
				labCfg.Listen = listen
			}
			srv, err := simulate.Start(labCfg)
			if err != nil {
				return err
			}
			for name, d := range labCfg.Devices {
				logger.Infof("  %s (%s)", name, d.Family)
			}
			<-cmd.Context().Done()
			logger.Info("Stopping simulated devices...")
			srv.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&labPath, "lab", "configs/simulate.yaml", "simulated device definitions")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the lab file")
	return cmd
}
