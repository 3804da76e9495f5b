package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/senyabanana/funding-service/internal/db"
	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"
	"github.com/senyabanana/funding-service/internal/router/config"
	"github.com/senyabanana/funding-service/internal/services"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("key", "value"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)

	_, err = NewLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestOpenRepositories(t *testing.T) {
	ctx := context.Background()

	repos, err := OpenRepositories(ctx, config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore{}, repos.Operations)
	repos.Close()

	repos, err = OpenRepositories(ctx, config.Config{
		StoreDriver: config.StoreSqlite,
		SqlitePath:  filepath.Join(t.TempDir(), "funding.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &repository.SqliteStore{}, repos.Bids)
	repos.Close()

	_, err = OpenRepositories(ctx, config.Config{StoreDriver: "mongo"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestSweepCmd(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "funding.db")

	conn, err := db.OpenSqlite(ctx, path)
	require.NoError(t, err)
	store := repository.NewSqliteStore(conn)

	operator := &models.User{ID: uuid.NewString(), Username: "operator1", Role: models.RoleOperator, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, operator))
	expired := &models.Operation{
		ID:              uuid.NewString(),
		OperatorID:      operator.ID,
		AmountRequired:  decimal.NewFromInt(100),
		InterestRate:    decimal.NewFromInt(5),
		Deadline:        models.DateOf(time.Now()).AddDate(0, 0, -2),
		AmountCollected: decimal.Zero,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.CreateOperation(ctx, expired))
	require.NoError(t, conn.Close())

	t.Setenv("STORE_DRIVER", config.StoreSqlite)
	t.Setenv("SQLITE_PATH", path)

	run := func() string {
		var out, errOut bytes.Buffer
		cmd := SweepCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"--config", dir})
		require.NoError(t, cmd.ExecuteContext(ctx))
		return out.String()
	}

	assert.Contains(t, run(), "closed 1 expired operation(s)")
	assert.Contains(t, run(), "closed 0 expired operation(s)")
}

func TestMigrateCmd_Sqlite(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", config.StoreSqlite)
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "funding.db"))

	var out bytes.Buffer
	cmd := MigrateCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", dir})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "sqlite schema applied")
}

type blockingCloser struct {
	started  chan struct{}
	finished atomic.Bool
}

func (c *blockingCloser) CloseExpiredOperations(ctx context.Context) (int64, error) {
	close(c.started)
	<-ctx.Done()
	c.finished.Store(true)
	return 0, ctx.Err()
}

func TestStartSweeper_StopWaitsForRunningSweep(t *testing.T) {
	closer := &blockingCloser{started: make(chan struct{})}
	logger, err := NewLogger(io.Discard, "error")
	require.NoError(t, err)
	sweeper := services.NewSweeper(closer, time.Hour, 0, logger)

	stop := startSweeper(context.Background(), sweeper)
	<-closer.started
	stop()

	assert.True(t, closer.finished.Load())
}
