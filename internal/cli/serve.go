package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kanban HTTP API",
		Long: `Start the REST API. The schema is migrated on startup.

Examples:
  kanban serve
  kanban serve --addr :9090
  kanban serve --config /etc/kanban/kanban.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.Config.Server.Addr = addr
			}

			srv := &http.Server{
				Addr:         a.Config.Server.Addr,
				Handler:      a.Router(),
				ReadTimeout:  a.Config.Server.ReadTimeout,
				WriteTimeout: a.Config.Server.WriteTimeout,
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			log := a.Logger.With().Str("component", "server").Logger()
			log.Info().
				Str("addr", srv.Addr).
				Str("db", a.Config.Database.Path).
				Bool("metrics", a.Registry != nil).
				Msg("listening")

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
