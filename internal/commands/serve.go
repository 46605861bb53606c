package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/handler"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				if cmd.Flags().Changed("port") {
					rt.cfg.Port = port
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return serve(ctx, rt)
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (env PORT)")
	return cmd
}

// serve runs the web surface until ctx is cancelled, then drains it.
func serve(ctx context.Context, rt *runtime) error {
	logger := rt.logger

	shutdownTracer, err := observability.InitTracer(rt.cfg.OTLPEndpoint, "ledger-client")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	if _, err := rt.app.Start(ctx); err != nil {
		logger.Warn("could not restore session", zap.Error(err))
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:      handler.NewRouter(rt.app, rt.metrics, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", ln.Addr().String()),
			zap.String("api_base", rt.cfg.APIBase),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
