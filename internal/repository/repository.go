package repository

import (
	"context"
	"time"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/shopspring/decimal"
)

// UserRepository - интерфейс для работы с пользователями.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userId string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteUser(ctx context.Context, userId string) (bool, error)
}

// OperationRepository - интерфейс для работы с операциями.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op *models.Operation) error
	GetOperation(ctx context.Context, operationId string) (*models.Operation, error)
	// ListOpenOperations возвращает незакрытые операции с дедлайном не раньше today.
	ListOpenOperations(ctx context.Context, today time.Time) ([]models.Operation, error)
	DeleteOperation(ctx context.Context, operationId string) (bool, error)
	// CloseExpiredOperations закрывает открытые операции с дедлайном раньше today
	// одной атомарной командой и возвращает их количество.
	CloseExpiredOperations(ctx context.Context, today time.Time) (int64, error)
	// WithLockedOperation выполняет fn в одной транзакции, удерживая блокировку операции.
	// Если fn вернула ошибку, все записи откатываются.
	WithLockedOperation(ctx context.Context, operationId string, fn LockedOperationFunc) error
}

// LockedOperationFunc получает снимок заблокированной операции и транзакцию для записи.
type LockedOperationFunc func(ctx context.Context, op *models.Operation, tx FundingTx) error

// FundingTx - типизированные записи, доступные внутри блокировки операции.
type FundingTx interface {
	InsertBid(ctx context.Context, bid *models.Bid) error
	UpdateCollected(ctx context.Context, operationId string, collected decimal.Decimal, closed bool) error
}

// BidRepository - интерфейс для чтения предложений.
type BidRepository interface {
	GetBid(ctx context.Context, bidId string) (*models.Bid, error)
	ListOperationBids(ctx context.Context, operationId string, limit, offset int) ([]models.Bid, error)
}

// Repositories объединяет реализации всех репозиториев одного хранилища.
type Repositories struct {
	Users      UserRepository
	Operations OperationRepository
	Bids       BidRepository
	Close      func()
}
