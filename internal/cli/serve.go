package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/funding-service/internal/db"
	"github.com/senyabanana/funding-service/internal/router/config"
	"github.com/senyabanana/funding-service/internal/services"

	"github.com/spf13/cobra"
)

// ServeCmd возвращает команду запуска HTTP-сервера.
func ServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the funding HTTP API and the expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := NewLogger(os.Stdout, cfg.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.StoreDriver == config.StorePostgres && !skipMigrations {
				changed, err := db.RunMigrations(cfg.MigrationURL, db.ConnString(cfg))
				if err != nil {
					return err
				}
				logger.Info("db migrated successfully", slog.Bool("changed", changed))
			}

			app, err := NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			sweeper := services.NewSweeper(app.Operations, cfg.SweepInterval, cfg.RequestTimeout, logger)
			stopSweeper := startSweeper(ctx, sweeper)
			defer stopSweeper()

			return serve(ctx, cfg.ServerAddress, app.Routes(), logger)
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on start")
	return cmd
}

// startSweeper запускает sweeper в фоне. Возвращенная функция останавливает его
// и ждет завершения текущего прохода.
func startSweeper(ctx context.Context, sweeper *services.Sweeper) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// serve обслуживает запросы до отмены ctx и затем плавно останавливает сервер.
func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is listening", slog.String("address", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
