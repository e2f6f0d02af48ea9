package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/config"
	"github.com/Sternrassler/swapi-gateway/pkg/gateway"
	"github.com/Sternrassler/swapi-gateway/pkg/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer HTTP API",
		Example: `  # Serve on the default port
  swapi-gateway serve

  # Serve against a local catalog with debug logs
  SWAPI_GATEWAY_UPSTREAM_URL=http://localhost:8000/api swapi-gateway serve --port 9090 --log-level debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().Duration("shutdown-timeout", 15*time.Second, "grace period for in-flight requests")
	bind(a.v, cmd.Flags().Lookup, map[string]string{
		config.KeyPort:            "port",
		config.KeyShutdownTimeout: "shutdown-timeout",
	})

	return cmd
}

// serve listens on the configured port until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	handler, err := a.newHandler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return runServer(ctx, newServer(handler), ln, a.cfg.ShutdownTimeout)
}

// newServer wraps handler. "OPTIONS *" is routed to handler as well so the
// CORS preflight answers it.
func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:                      handler,
		ReadHeaderTimeout:            10 * time.Second,
		DisableGeneralOptionsHandler: true,
	}
}

func (a *app) newHandler() (http.Handler, error) {
	svc, err := a.newService()
	if err != nil {
		return nil, err
	}
	return gateway.NewRouter(svc, logging.NewLogger("gateway")), nil
}

// runServer serves on ln and shuts srv down gracefully once ctx is done.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	logger := logging.NewLogger("server")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("version", version).
			Msg("Starting gateway")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Gateway stopped gracefully")
	return nil
}
