package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/leeforge/essentials/api"
	"github.com/leeforge/essentials/config"
	"github.com/leeforge/essentials/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the installer HTTP API",
		Long: `Run the installer HTTP API.

Endpoints:
  GET  /plugins                   List plugins
  GET  /plugins/{id}              Show one plugin
  POST /plugins/{id}/install      Install with dependencies
  POST /plugins/{id}/parameters   Complete a plugin awaiting user input
  POST /restart                   Resume after rebuild and restart
  GET  /metrics                   Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.settings.Server.Addr
			}
			if watch {
				if err := a.loader.Watch(ctx, a.applySettings); err != nil {
					return err
				}
			}

			server := api.New(api.Config{
				Machine:   a.machine,
				Plugins:   a.plugins,
				Rebuilder: a.service,
				Metrics:   metrics.Handler(a.registry),
				Logger:    a.logger.Named("http"),
			})
			return a.listen(ctx, &http.Server{Addr: addr, Handler: server.Router()})
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from server.addr)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload installer settings when config files change")
	return cmd
}

func (a *app) listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("essentials listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.Server.ShutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// applySettings takes the live-reloadable part of a changed configuration.
func (a *app) applySettings(s *config.Settings, err error) {
	if err != nil {
		a.logger.Warn("config reload failed", zap.Error(err))
		return
	}
	a.service.SetConfirmParameters(s.Installer.ConfirmParameters)
	a.logger.Info("config reloaded",
		zap.Bool("confirm_parameters", s.Installer.ConfirmParameters))
}
