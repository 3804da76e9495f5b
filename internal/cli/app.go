package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/senyabanana/funding-service/internal/db"
	"github.com/senyabanana/funding-service/internal/handlers"
	"github.com/senyabanana/funding-service/internal/repository"
	"github.com/senyabanana/funding-service/internal/router"
	"github.com/senyabanana/funding-service/internal/router/config"
	"github.com/senyabanana/funding-service/internal/services"

	"github.com/spf13/cobra"
)

// App - собранные зависимости сервиса.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Repos      repository.Repositories
	Users      *services.UserService
	Operations *services.OperationService
	Bids       *services.BidService
}

// NewApp собирает сервисы поверх хранилища, выбранного в конфигурации.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	repos, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	users := services.NewUserService(repos.Users)
	operations := services.NewOperationService(repos.Operations, repos.Bids, users, logger)
	bids := services.NewBidService(repos.Operations, repos.Bids, users, logger)
	bids.MaxAttempts = cfg.BidMaxAttempts
	bids.RetryInterval = cfg.BidRetryInterval

	return &App{
		Config:     cfg,
		Logger:     logger,
		Repos:      repos,
		Users:      users,
		Operations: operations,
		Bids:       bids,
	}, nil
}

// Routes возвращает HTTP-обработчик API.
func (a *App) Routes() http.Handler {
	return router.InitRoutes(
		handlers.NewUserHandler(a.Users, a.Logger, a.Config.RequestTimeout),
		handlers.NewOperationHandler(a.Operations, a.Users, a.Logger, a.Config.RequestTimeout),
		handlers.NewBidHandler(a.Bids, a.Users, a.Logger, a.Config.RequestTimeout),
	)
}

// Close освобождает соединения с хранилищем.
func (a *App) Close() {
	if a.Repos.Close != nil {
		a.Repos.Close()
	}
}

// OpenRepositories открывает хранилище по STORE_DRIVER.
func OpenRepositories(ctx context.Context, cfg config.Config) (repository.Repositories, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			return repository.Repositories{}, fmt.Errorf("error initializing database: %w", err)
		}
		return repository.Repositories{
			Users:      repository.NewPostgresUserRepository(dbPool),
			Operations: repository.NewPostgresOperationRepository(dbPool, cfg.LockTimeout),
			Bids:       repository.NewPostgresBidRepository(dbPool),
			Close:      dbPool.Close,
		}, nil
	case config.StoreSqlite:
		conn, err := db.OpenSqlite(ctx, cfg.SqlitePath)
		if err != nil {
			return repository.Repositories{}, err
		}
		store := repository.NewSqliteStore(conn)
		return repository.Repositories{
			Users:      store,
			Operations: store,
			Bids:       store,
			Close:      func() { _ = conn.Close() },
		}, nil
	case config.StoreMemory:
		store := repository.NewMemoryStore()
		return repository.Repositories{
			Users:      store,
			Operations: store,
			Bids:       store,
			Close:      func() {},
		}, nil
	default:
		return repository.Repositories{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewLogger создает JSON-логгер с уровнем из конфигурации.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig читает конфигурацию из каталога, заданного флагом --config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}

// addConfigFlag добавляет флаг --config с каталогом файла app.env.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", ".", "directory containing app.env")
}
