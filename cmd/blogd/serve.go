package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"blog/internal/auth"
	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/logging"
	"blog/internal/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	janitorInterval   = time.Minute
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the blog HTTP server",
		Long:  `Start the HTTP server, applying any pending schema migrations first.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetDefault("blogd", version, cfg.LogFormat)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	sessions := auth.NewSessions(cfg.SessionTTL)
	stopJanitor := sessions.StartJanitor(janitorInterval)
	defer stopJanitor()

	srv, err := server.New(database, sessions, cfg.TemplateDir, cfg.SiteTitle, slog.Default())
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").Wrap(err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	slog.Info("listening", "addr", cfg.Addr, "db", cfg.DBPath)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return oops.Code("SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("SERVE_FAILED").Wrap(err)
	}
}
