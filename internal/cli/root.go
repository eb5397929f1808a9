package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

// errFailed 结果已输出，只需以非零状态退出
var errFailed = errors.New("check failed")

type app struct {
	cfgPath  string
	verbose  bool
	username string
	password string
	port     int

	cfg       *config.Config
	out       io.Writer
	transport detect.Transport
}

// Main 命令行入口
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{out: os.Stdout})
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sysvers",
		Short:         "Detect operating system and firmware versions of local and remote hosts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.username, "username", "", "SSH username (overrides SSH_USERNAME)")
	pf.StringVar(&a.password, "password", "", "SSH password (overrides SSH_PASSWORD)")
	pf.IntVar(&a.port, "port", 0, "SSH port (overrides SSH_PORT)")

	root.AddCommand(localCmd(a))
	root.AddCommand(checkCmd(a))
	root.AddCommand(devicesCmd(a))
	root.AddCommand(batchCmd(a))
	root.AddCommand(serveCmd(a))
	root.AddCommand(simulateCmd(a))
	return root
}

// init 加载配置、应用命令行覆盖并初始化日志
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.username != "" {
		cfg.SSH.Username = a.username
	}
	if a.password != "" {
		cfg.SSH.Password = a.password
	}
	if a.port > 0 {
		cfg.SSH.Port = a.port
	}
	a.cfg = cfg

	if err := logger.Init(cfg.LoggerConfig(a.verbose)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("command", cmd.Name()).Debugf("sysvers %s", Version)
	return nil
}

func (a *app) engine() (*detect.Engine, error) {
	order, err := a.cfg.AutoOrder()
	if err != nil {
		return nil, err
	}
	transport := a.transport
	if transport == nil {
		transport = detect.SSHTransport{SessionRetries: a.cfg.SSH.SessionRetries}
	}
	return detect.NewEngine(transport, detect.LogReporter{}, detect.Options{
		AutoOrder:        order,
		ProbeTimeout:     a.cfg.Detect.ProbeTimeout,
		BatchConcurrency: a.cfg.Detect.BatchConcurrency,
	}), nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// printResult 打印单台主机结果，失败时附带提示
func (a *app) printResult(r model.Result) {
	if r.OK() {
		a.printf("Remote System Version (%s): %s\n", r.Host, r.Output)
		return
	}
	a.printf("Failed to determine remote system version for %s: %s (%s)\n", r.Host, r.Class, r.Detail)
	if r.Hint != "" {
		a.printf("Hint: %s\n", r.Hint)
	}
}
