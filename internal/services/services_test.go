package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/senyabanana/funding-service/internal/db"
	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixedNow - полдень 20 мая 2026 года по UTC.
var fixedNow = time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repos      repository.Repositories
	users      *UserService
	operations *OperationService
	bids       *BidService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, repos repository.Repositories) *fixture {
	t.Helper()
	logger := discardLogger()
	clock := func() time.Time { return fixedNow }

	users := NewUserService(repos.Users)
	users.Now = clock
	operations := NewOperationService(repos.Operations, repos.Bids, users, logger)
	operations.Now = clock
	bids := NewBidService(repos.Operations, repos.Bids, users, logger)
	bids.Now = clock
	bids.RetryInterval = time.Millisecond

	return &fixture{repos: repos, users: users, operations: operations, bids: bids}
}

func memoryRepos(t *testing.T) repository.Repositories {
	t.Helper()
	store := repository.NewMemoryStore()
	return repository.Repositories{Users: store, Operations: store, Bids: store, Close: func() {}}
}

func sqliteRepos(t *testing.T) repository.Repositories {
	t.Helper()
	conn, err := db.OpenSqlite(context.Background(), filepath.Join(t.TempDir(), "funding.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	store := repository.NewSqliteStore(conn)
	return repository.Repositories{Users: store, Operations: store, Bids: store, Close: func() { _ = conn.Close() }}
}

func eachStore(t *testing.T, run func(t *testing.T, f *fixture)) {
	t.Run("memory", func(t *testing.T) { run(t, newFixture(t, memoryRepos(t))) })
	t.Run("sqlite", func(t *testing.T) { run(t, newFixture(t, sqliteRepos(t))) })
}

func (f *fixture) register(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user, err := f.users.RegisterUser(context.Background(), models.UserRequest{Username: username, Role: role})
	require.NoError(t, err)
	return user
}

func (f *fixture) createOperation(t *testing.T, operatorId, required, deadline string) *models.Operation {
	t.Helper()
	op, err := f.operations.CreateOperation(context.Background(), operatorId, models.OperationRequest{
		AmountRequired: decimal.RequireFromString(required),
		InterestRate:   decimal.RequireFromString("12"),
		Deadline:       deadline,
	})
	require.NoError(t, err)
	return op
}

func (f *fixture) bid(investorId, operationId, amount string) (*models.Bid, error) {
	return f.bids.SubmitBid(context.Background(), investorId, models.BidRequest{
		OperationID:  operationId,
		Amount:       decimal.RequireFromString(amount),
		InterestRate: decimal.RequireFromString("11.5"),
	})
}

// MockAccountDirectory is a mock implementation of AccountDirectory for testing
type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) GetUserRole(ctx context.Context, userId string) (models.Role, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.Role), args.Error(1)
}
