package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reviews"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API under /api/v1",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.getLogger("serve")

			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if migrateFirst {
				if _, err := reviews.Migrate(cmd.Context(), db, ctx.getLogger("migrate")); err != nil {
					return err
				}
			}

			a, err := newApp(ctx, cfg, db)
			if err != nil {
				return err
			}

			srv := a.newHTTPServer(ctx, cfg)
			logger.Info("listening", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
			srv.Serve(cfg.HTTP.Addr)

			sig := waitExitSignal()
			logger.Info("shutting down", "signal", sig.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
