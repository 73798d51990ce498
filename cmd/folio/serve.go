package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var configPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Long: `Serve the site described by the config file. Settings can also come from
FOLIO_* environment variables, which take precedence over the file.
FOLIO_SESSION_SECRET is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := folio.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, folio.New(cfg))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (YAML, TOML or JSON)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the config")
	return cmd
}

// serve runs app until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, app *folio.App) error {
	if err := app.Init(); err != nil {
		return err
	}
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("folio: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errc
}
