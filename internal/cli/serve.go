package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/api/handler"
	"github.com/sshcollectorpro/sysvers/api/router"
	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			store, closeStore, err := a.openStore()
			if err != nil {
				logger.Warnf("Inventory store unavailable, history disabled: %v", err)
			} else {
				defer closeStore()
			}

			// 凭据与超时取当前配置，热加载后立即生效
			params := func(host string) model.ConnectionParams {
				cfg := config.Get()
				if cfg == nil {
					cfg = a.cfg
				}
				p := cfg.ConnectionParams(host)
				if a.username != "" {
					p.Username = a.username
				}
				if a.password != "" {
					p.Password = a.password
				}
				if a.port > 0 {
					p.Port = a.port
				}
				return p
			}

			config.Watch(func(c *config.Config) {
				if !a.verbose {
					logger.SetLevel(c.Log.Level)
				}
			})

			r := router.SetupRouter(a.cfg.Server.Mode, handler.NewDetectHandler(engine, params, store))
			server := &http.Server{
				Addr:           a.cfg.GetServerAddr(),
				Handler:        r,
				ReadTimeout:    a.cfg.Server.ReadTimeout,
				WriteTimeout:   a.cfg.Server.WriteTimeout,
				MaxHeaderBytes: 1 << 20,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.WithField("addr", server.Addr).Info("Server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			logger.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}
