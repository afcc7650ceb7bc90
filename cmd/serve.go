package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/monitoring"
	"github.com/sells-group/district-demographics/internal/server"
	"github.com/sells-group/district-demographics/internal/session"
	"github.com/sells-group/district-demographics/internal/table"
	"github.com/sells-group/district-demographics/internal/view"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map and table HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		e, err := newEnv(cfg)
		if err != nil {
			return err
		}

		collector := monitoring.NewCollector(50)
		go monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring).Run(ctx)

		sorter := table.NewSorter(cfg.Table.Locale)
		sessions := session.NewStore(cfg.Session.MaxEntries, cfg.Session.TTL(), func() *view.Controller {
			return view.New(view.Options{
				Registry: e.Registry,
				Loader:   e.Loader,
				Sink:     collector,
				Sorter:   sorter,
			})
		})
		defer sessions.Close()
		go sweep(ctx, sessions, time.Minute)

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: server.New(server.Deps{
				Registry:       e.Registry,
				Sessions:       sessions,
				Collector:      collector,
				ResultsDir:     cfg.Server.ResultsDir,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			}).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Int("cities", e.Registry.Len()),
			zap.String("data_base_url", cfg.Data.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// sweep expires idle sessions until ctx is done.
func sweep(ctx context.Context, s *session.Store, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				zap.L().Debug("expired sessions", zap.Int("count", n))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
