package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBidService_FullFundingClosesOperation(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		op := f.createOperation(t, operator.ID, "1000", "2026-05-21")

		bid, err := f.bid(investor.ID, op.ID, "1000")
		require.NoError(t, err)
		assert.Equal(t, op.ID, bid.OperationID)
		assert.Equal(t, investor.ID, bid.InvestorID)

		got, err := f.operations.GetOperation(ctx, op.ID)
		require.NoError(t, err)
		assert.True(t, got.IsClosed)
		assert.True(t, got.AmountCollected.Equal(decimal.NewFromInt(1000)))

		_, err = f.bid(investor.ID, op.ID, "1")
		assert.ErrorIs(t, err, models.ErrOperationClosed)
	})
}

func TestBidService_OverCapacityLeavesStateUnchanged(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		op := f.createOperation(t, operator.ID, "100", "2026-05-21")

		_, err := f.bid(investor.ID, op.ID, "80")
		require.NoError(t, err)

		_, err = f.bid(investor.ID, op.ID, "20.01")
		assert.ErrorIs(t, err, models.ErrAmountExceedsCapacity)

		got, err := f.operations.GetOperation(ctx, op.ID)
		require.NoError(t, err)
		assert.True(t, got.AmountCollected.Equal(decimal.NewFromInt(80)))
		assert.False(t, got.IsClosed)

		bids, err := f.operations.ListOperationBids(ctx, op.ID, 50, 0)
		require.NoError(t, err)
		assert.Len(t, bids, 1)
	})
}

func TestBidService_DeadlineRules(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		dueToday := f.createOperation(t, operator.ID, "100", "2026-05-20")
		dueYesterday := f.createOperation(t, operator.ID, "100", "2026-05-19")

		_, err := f.bid(investor.ID, dueToday.ID, "10")
		assert.NoError(t, err)

		_, err = f.bid(investor.ID, dueYesterday.ID, "10")
		assert.ErrorIs(t, err, models.ErrOperationExpired)
	})
}

func TestBidService_PreconditionOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		op := f.createOperation(t, operator.ID, "100", "2026-05-21")
		expired := f.createOperation(t, operator.ID, "100", "2026-05-01")

		_, err := f.bid(investor.ID, uuid.NewString(), "10")
		assert.ErrorIs(t, err, models.ErrNotFound)

		// Операторы не могут делать предложения, но проверка роли идет после суммы.
		_, err = f.bid(operator.ID, op.ID, "500")
		assert.ErrorIs(t, err, models.ErrAmountExceedsCapacity)

		_, err = f.bid(operator.ID, expired.ID, "10")
		assert.ErrorIs(t, err, models.ErrOperationExpired)

		_, err = f.bid(operator.ID, op.ID, "10")
		assert.ErrorIs(t, err, models.ErrPermissionDenied)

		_, err = f.bid(uuid.NewString(), op.ID, "10")
		assert.ErrorIs(t, err, models.ErrPermissionDenied)

		_, err = f.bid(investor.ID, "not-a-uuid", "10")
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestBidService_SumOfBidsMatchesCollected(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		op := f.createOperation(t, operator.ID, "250.75", "2026-06-01")

		for _, amount := range []string{"10.25", "100", "0.50", "200", "90", "50", "40", "9.99", "0.01"} {
			_, err := f.bid(investor.ID, op.ID, amount)
			if err != nil {
				require.True(t, models.IsBusinessRule(err), "unexpected error: %v", err)
			}
		}

		got, err := f.operations.GetOperation(ctx, op.ID)
		require.NoError(t, err)

		bids, err := f.operations.ListOperationBids(ctx, op.ID, 50, 0)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, bid := range bids {
			sum = sum.Add(bid.Amount)
		}
		assert.True(t, sum.Equal(got.AmountCollected), "sum %s, collected %s", sum, got.AmountCollected)
		assert.True(t, got.AmountCollected.LessThanOrEqual(got.AmountRequired))
		assert.Equal(t, got.AmountCollected.Equal(got.AmountRequired), got.IsClosed)
	})
}

func TestBidService_ConcurrentBidsNeverOverfund(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		operator := f.register(t, "operator1", models.RoleOperator)
		investor := f.register(t, "investor1", models.RoleInvestor)
		op := f.createOperation(t, operator.ID, "100", "2026-05-21")

		_, err := f.bid(investor.ID, op.ID, "50")
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			exceeded  atomic.Int32
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.bid(investor.ID, op.ID, "30")
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, models.ErrAmountExceedsCapacity):
					exceeded.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(1), exceeded.Load())

		got, err := f.operations.GetOperation(ctx, op.ID)
		require.NoError(t, err)
		assert.True(t, got.AmountCollected.Equal(decimal.NewFromInt(80)))
		assert.False(t, got.IsClosed)
	})
}

func TestBidService_ManyConcurrentBids(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	ctx := context.Background()
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.bid(investor.ID, op.ID, "7")
		}()
	}
	wg.Wait()

	got, err := f.operations.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountCollected.Equal(decimal.NewFromInt(98)))

	bids, err := f.operations.ListOperationBids(ctx, op.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, bids, 14)
}

// flakyOperations возвращает конфликт транзакции первые failures раз.
type flakyOperations struct {
	repository.OperationRepository
	failures int32
	calls    atomic.Int32
}

func (r *flakyOperations) WithLockedOperation(ctx context.Context, operationId string, fn repository.LockedOperationFunc) error {
	if r.calls.Add(1) <= r.failures {
		return models.ErrTxConflict
	}
	return r.OperationRepository.WithLockedOperation(ctx, operationId, fn)
}

func TestBidService_RetriesTransactionConflicts(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	flaky := &flakyOperations{OperationRepository: f.repos.Operations, failures: 2}
	f.bids.Operations = flaky
	f.bids.MaxAttempts = 3

	bid, err := f.bid(investor.ID, op.ID, "10")
	require.NoError(t, err)
	assert.Equal(t, op.ID, bid.OperationID)
	assert.Equal(t, int32(3), flaky.calls.Load())
}

func TestBidService_ExhaustedRetriesSurfaceStorageFailure(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	flaky := &flakyOperations{OperationRepository: f.repos.Operations, failures: 10}
	f.bids.Operations = flaky
	f.bids.MaxAttempts = 2

	_, err := f.bid(investor.ID, op.ID, "10")
	assert.ErrorIs(t, err, models.ErrStorageFailure)
	assert.False(t, models.IsRetryable(err))
	assert.Equal(t, int32(2), flaky.calls.Load())

	got, err := f.operations.GetOperation(context.Background(), op.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountCollected.IsZero())
}

func TestBidService_BusinessErrorsAreNotRetried(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	flaky := &flakyOperations{OperationRepository: f.repos.Operations}
	f.bids.Operations = flaky

	_, err := f.bid(investor.ID, op.ID, "101")
	assert.ErrorIs(t, err, models.ErrAmountExceedsCapacity)
	assert.Equal(t, int32(1), flaky.calls.Load())
}

func TestBidService_DirectoryFailure(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	directory := new(MockAccountDirectory)
	directory.On("GetUserRole", mock.Anything, "investor-id").
		Return(models.Role(""), models.ErrStorageFailure).Once()
	f.bids.Directory = directory

	_, err := f.bid("investor-id", op.ID, "10")
	assert.ErrorIs(t, err, models.ErrStorageFailure)
	directory.AssertExpectations(t)
}

func TestBidService_UsesDirectoryRole(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	directory := new(MockAccountDirectory)
	directory.On("GetUserRole", mock.Anything, investor.ID).Return(models.RoleOperator, nil).Once()
	f.bids.Directory = directory

	_, err := f.bid(investor.ID, op.ID, "10")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	directory.AssertExpectations(t)
}

func TestBidService_GetBid(t *testing.T) {
	f := newFixture(t, memoryRepos(t))
	operator := f.register(t, "operator1", models.RoleOperator)
	investor := f.register(t, "investor1", models.RoleInvestor)
	op := f.createOperation(t, operator.ID, "100", "2026-05-21")

	bid, err := f.bid(investor.ID, op.ID, "10")
	require.NoError(t, err)

	got, err := f.bids.GetBid(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, fixedNow.Equal(got.BidDate))

	_, err = f.bids.GetBid(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
