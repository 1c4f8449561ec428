package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexus-hr/treasury/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciliation worker",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	srv, err := server.New(ctx, rt.cfg, rt.db, rt.cache, rt.logger)
	if err != nil {
		return err
	}
	srv.StartWorker(ctx)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	select {
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received")
	case err := <-srvErrCh:
		if err != nil {
			rt.logger.Error("server error", slog.Any("error", err))
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("shutdown error", slog.Any("error", err))
		return err
	}

	rt.logger.Info("server exited cleanly", slog.Int("pid", os.Getpid()))
	return nil
}
