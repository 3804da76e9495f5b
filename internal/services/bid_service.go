package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// BidService - прием предложений инвесторов.
type BidService struct {
	Operations repository.OperationRepository
	Repo       repository.BidRepository
	Directory  AccountDirectory
	Logger     *slog.Logger
	Now        func() time.Time

	MaxAttempts   uint
	RetryInterval time.Duration
}

// NewBidService создает новый экземпляр BidService.
func NewBidService(operations repository.OperationRepository, repo repository.BidRepository, directory AccountDirectory, logger *slog.Logger) *BidService {
	return &BidService{
		Operations:    operations,
		Repo:          repo,
		Directory:     directory,
		Logger:        logger,
		Now:           time.Now,
		MaxAttempts:   3,
		RetryInterval: 50 * time.Millisecond,
	}
}

// SubmitBid принимает предложение инвестора по операции.
// Проверки и обе записи выполняются под блокировкой операции в одной транзакции.
func (s *BidService) SubmitBid(ctx context.Context, investorId string, req models.BidRequest) (*models.Bid, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role, err := s.Directory.GetUserRole(ctx, investorId)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	attempt := 0
	bid, err := backoff.Retry(ctx, func() (*models.Bid, error) {
		attempt++
		bid, err := s.admitBid(ctx, investorId, role, req)
		if err == nil {
			return bid, nil
		}
		if models.IsRetryable(err) {
			s.Logger.WarnContext(ctx, "bid transaction conflict, retrying",
				slog.String("operation_id", req.OperationID),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxAttempts()),
	)
	if err != nil {
		if models.IsRetryable(err) {
			return nil, fmt.Errorf("bid not admitted after %d attempts: %w", attempt, models.ErrStorageFailure)
		}
		return nil, err
	}

	s.Logger.InfoContext(ctx, "bid admitted",
		slog.String("bid_id", bid.ID),
		slog.String("operation_id", bid.OperationID),
		slog.String("investor_id", investorId),
		slog.String("amount", bid.Amount.String()),
	)
	return bid, nil
}

// admitBid выполняет одну попытку приема предложения.
func (s *BidService) admitBid(ctx context.Context, investorId string, role models.Role, req models.BidRequest) (*models.Bid, error) {
	var admitted *models.Bid
	err := s.Operations.WithLockedOperation(ctx, req.OperationID, func(ctx context.Context, op *models.Operation, tx repository.FundingTx) error {
		now := s.Now()
		if err := op.CheckBid(req.Amount, now); err != nil {
			return err
		}
		if role != models.RoleInvestor {
			return fmt.Errorf("only investors can bid: %w", models.ErrPermissionDenied)
		}

		bid := &models.Bid{
			ID:           uuid.NewString(),
			OperationID:  op.ID,
			InvestorID:   investorId,
			Amount:       req.Amount,
			InterestRate: req.InterestRate,
			BidDate:      now.UTC(),
		}
		if err := tx.InsertBid(ctx, bid); err != nil {
			return err
		}

		collected, closed := op.ApplyBid(req.Amount)
		if err := tx.UpdateCollected(ctx, op.ID, collected, closed); err != nil {
			return err
		}
		admitted = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admitted, nil
}

// GetBid возвращает предложение по ID.
func (s *BidService) GetBid(ctx context.Context, bidId string) (*models.Bid, error) {
	if err := uuid.Validate(bidId); err != nil {
		return nil, models.ErrNotFound
	}
	return s.Repo.GetBid(ctx, bidId)
}

func (s *BidService) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.RetryInterval
	b.MaxInterval = 20 * s.RetryInterval
	return b
}

func (s *BidService) maxAttempts() uint {
	if s.MaxAttempts == 0 {
		return 1
	}
	return s.MaxAttempts
}
