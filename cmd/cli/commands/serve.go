package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/api"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/proxy"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP API, sheets proxy and sync worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			proxyHandler := proxy.New(app.Cfg.AppsScriptURL, nil, app.Logger)
			server := api.NewServer(app.Portal, app.Outbox, proxyHandler, app.Logger)

			httpServer := &http.Server{
				Addr:              app.Cfg.Server.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			workerDone := make(chan struct{})
			go func() {
				defer close(workerDone)
				app.Outbox.Run(ctx, app.Cfg.Sync.Interval)
			}()

			serveErr := make(chan error, 1)
			go func() {
				app.Logger.Info("Portal listening", zap.String("addr", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			var runErr error
			select {
			case <-ctx.Done():
				app.Logger.Info("Shutting down")
			case err := <-serveErr:
				if err != nil {
					runErr = fmt.Errorf("server error: %w", err)
				}
				stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Server shutdown incomplete", zap.Error(err))
			}
			<-workerDone

			return runErr
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Run gin in debug mode")
	return cmd
}
