package cli

import (
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

func checkCmd(a *app) *cobra.Command {
	var (
		deviceType string
		command    string
		shell      bool
	)

	cmd := &cobra.Command{
		Use:   "check HOST",
		Short: "Detect the OS/firmware version of a remote host over SSH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := model.ParseFamily(deviceType)
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}

			params := a.cfg.ConnectionParams(args[0])
			var r model.Result
			if command != "" {
				// 单条命令：不走候选表，按同样的规则校验输出
				c := model.Candidate{Command: command, Strategy: model.StrategyDirect}
				if shell {
					c.Strategy = model.StrategyInteractive
				}
				r = engine.Execute(cmd.Context(), params, c)
			} else {
				r = engine.Detect(cmd.Context(), family, params)
			}

			a.printResult(r)
			if !r.OK() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deviceType, "device-type", "t", "auto",
		"device family: cisco|juniper|ubiquiti|linux|windows|macos|auto")
	cmd.Flags().StringVarP(&command, "command", "c", "", "run this single command instead of the family's candidates")
	cmd.Flags().BoolVar(&shell, "shell", false, "run --command through the interactive-shell strategy")
	cmd.MarkFlagsMutuallyExclusive("command", "device-type")
	return cmd
}
