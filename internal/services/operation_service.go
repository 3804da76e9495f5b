package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationService - бизнес-логика операций финансирования.
type OperationService struct {
	Repo      repository.OperationRepository
	Bids      repository.BidRepository
	Directory AccountDirectory
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewOperationService создает новый экземпляр OperationService.
func NewOperationService(repo repository.OperationRepository, bids repository.BidRepository, directory AccountDirectory, logger *slog.Logger) *OperationService {
	return &OperationService{
		Repo:      repo,
		Bids:      bids,
		Directory: directory,
		Logger:    logger,
		Now:       time.Now,
	}
}

// CreateOperation создает новую операцию от имени оператора.
func (s *OperationService) CreateOperation(ctx context.Context, operatorId string, req models.OperationRequest) (*models.Operation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	deadline, err := req.DeadlineDate()
	if err != nil {
		return nil, err
	}

	if err := requireRole(ctx, s.Directory, operatorId, models.RoleOperator); err != nil {
		return nil, err
	}

	op := &models.Operation{
		ID:              uuid.NewString(),
		OperatorID:      operatorId,
		AmountRequired:  req.AmountRequired,
		InterestRate:    req.InterestRate,
		Deadline:        deadline,
		AmountCollected: decimal.Zero,
		IsClosed:        false,
		CreatedAt:       s.Now().UTC(),
	}
	if err := s.Repo.CreateOperation(ctx, op); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "operation created",
		slog.String("operation_id", op.ID),
		slog.String("operator_id", operatorId),
		slog.String("amount_required", op.AmountRequired.String()),
		slog.String("deadline", op.Deadline.Format(models.DateLayout)),
	)
	return op, nil
}

// GetOperation возвращает операцию по ID.
func (s *OperationService) GetOperation(ctx context.Context, operationId string) (*models.Operation, error) {
	if err := uuid.Validate(operationId); err != nil {
		return nil, models.ErrNotFound
	}
	return s.Repo.GetOperation(ctx, operationId)
}

// ListActiveOperations возвращает открытые операции с непрошедшим дедлайном.
func (s *OperationService) ListActiveOperations(ctx context.Context) ([]models.Operation, error) {
	return s.Repo.ListOpenOperations(ctx, models.DateOf(s.Now()))
}

// DeleteOperation удаляет операцию вместе с её предложениями.
func (s *OperationService) DeleteOperation(ctx context.Context, callerId, operationId string) error {
	if err := requireRole(ctx, s.Directory, callerId, models.RoleOperator); err != nil {
		return err
	}
	if err := uuid.Validate(operationId); err != nil {
		return models.ErrNotFound
	}

	deleted, err := s.Repo.DeleteOperation(ctx, operationId)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrNotFound
	}

	s.Logger.InfoContext(ctx, "operation deleted",
		slog.String("operation_id", operationId),
		slog.String("caller_id", callerId),
	)
	return nil
}

// CloseExpiredOperations закрывает операции, дедлайн которых уже прошел.
func (s *OperationService) CloseExpiredOperations(ctx context.Context) (int64, error) {
	today := models.DateOf(s.Now())
	closed, err := s.Repo.CloseExpiredOperations(ctx, today)
	if err != nil {
		return 0, err
	}
	s.Logger.InfoContext(ctx, "expired operations closed",
		slog.Int64("closed", closed),
		slog.String("today", today.Format(models.DateLayout)),
	)
	return closed, nil
}

// CloseExpiredOperationsAs закрывает просроченные операции от имени оператора.
func (s *OperationService) CloseExpiredOperationsAs(ctx context.Context, callerId string) (int64, error) {
	if err := requireRole(ctx, s.Directory, callerId, models.RoleOperator); err != nil {
		return 0, err
	}
	return s.CloseExpiredOperations(ctx)
}

// ListOperationBids возвращает предложения по операции.
func (s *OperationService) ListOperationBids(ctx context.Context, operationId string, limit, offset int) ([]models.Bid, error) {
	if _, err := s.GetOperation(ctx, operationId); err != nil {
		return nil, err
	}
	return s.Bids.ListOperationBids(ctx, operationId, limit, offset)
}

// requireRole проверяет роль пользователя. Неизвестный пользователь не имеет роли.
func requireRole(ctx context.Context, directory AccountDirectory, userId string, want models.Role) error {
	role, err := directory.GetUserRole(ctx, userId)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("user has no role: %w", models.ErrPermissionDenied)
		}
		return err
	}
	if role != want {
		return fmt.Errorf("role %s required: %w", want, models.ErrPermissionDenied)
	}
	return nil
}
