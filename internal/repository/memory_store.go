package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryStore - реализация репозиториев в памяти для разработки и тестов.
// Один мьютекс защищает все данные, единица работы держит его целиком.
type MemoryStore struct {
	mu sync.Mutex

	users      map[string]models.User
	operations map[string]models.Operation
	bids       map[string]models.Bid
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		operations: make(map[string]models.Operation),
		bids:       make(map[string]models.Bid),
	}
}

// CreateUser сохраняет нового пользователя.
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return models.ErrConflict
		}
	}
	if _, exists := s.users[user.ID]; exists {
		return models.ErrConflict
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (s *MemoryStore) GetUserByID(_ context.Context, userId string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userId]; ok {
		return &u, nil
	}
	return nil, models.ErrNotFound
}

// GetUserByUsername возвращает пользователя по username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// DeleteUser удаляет пользователя, если на него не ссылаются операции и предложения.
func (s *MemoryStore) DeleteUser(_ context.Context, userId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userId]; !ok {
		return false, nil
	}
	for _, op := range s.operations {
		if op.OperatorID == userId {
			return false, models.ErrConflict
		}
	}
	for _, bid := range s.bids {
		if bid.InvestorID == userId {
			return false, models.ErrConflict
		}
	}
	delete(s.users, userId)
	return true, nil
}

// CreateOperation сохраняет новую операцию.
func (s *MemoryStore) CreateOperation(_ context.Context, op *models.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[op.ID]; exists {
		return models.ErrConflict
	}
	if _, ok := s.users[op.OperatorID]; !ok {
		return models.ErrConflict
	}
	s.operations[op.ID] = *op
	return nil
}

// GetOperation возвращает операцию по ID.
func (s *MemoryStore) GetOperation(_ context.Context, operationId string) (*models.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op, ok := s.operations[operationId]; ok {
		return &op, nil
	}
	return nil, models.ErrNotFound
}

// ListOpenOperations возвращает список активных операций.
func (s *MemoryStore) ListOpenOperations(_ context.Context, today time.Time) ([]models.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Operation, 0)
	for _, op := range s.operations {
		if !op.IsClosed && !models.DateOf(op.Deadline).Before(today) {
			result = append(result, op)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteOperation удаляет операцию вместе с её предложениями.
func (s *MemoryStore) DeleteOperation(_ context.Context, operationId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.operations[operationId]; !ok {
		return false, nil
	}
	delete(s.operations, operationId)
	for id, bid := range s.bids {
		if bid.OperationID == operationId {
			delete(s.bids, id)
		}
	}
	return true, nil
}

// CloseExpiredOperations закрывает операции с истекшим дедлайном.
func (s *MemoryStore) CloseExpiredOperations(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed int64
	for id, op := range s.operations {
		if !op.IsClosed && models.DateOf(op.Deadline).Before(today) {
			op.IsClosed = true
			s.operations[id] = op
			closed++
		}
	}
	return closed, nil
}

// WithLockedOperation выполняет fn под мьютексом хранилища.
// Записи fn копятся в memoryFundingTx и применяются только при успехе.
func (s *MemoryStore) WithLockedOperation(ctx context.Context, operationId string, fn LockedOperationFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[operationId]
	if !ok {
		return models.ErrNotFound
	}

	tx := &memoryFundingTx{store: s, updates: make(map[string]models.Operation)}
	if err := fn(ctx, &op, tx); err != nil {
		return err
	}

	for _, bid := range tx.bids {
		s.bids[bid.ID] = bid
	}
	for id, updated := range tx.updates {
		s.operations[id] = updated
	}
	return nil
}

// GetBid возвращает предложение по ID.
func (s *MemoryStore) GetBid(_ context.Context, bidId string) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bid, ok := s.bids[bidId]; ok {
		return &bid, nil
	}
	return nil, models.ErrNotFound
}

// ListOperationBids возвращает список предложений по операции.
func (s *MemoryStore) ListOperationBids(_ context.Context, operationId string, limit, offset int) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Bid, 0)
	for _, bid := range s.bids {
		if bid.OperationID == operationId {
			result = append(result, bid)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].BidDate.Equal(result[j].BidDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].BidDate.Before(result[j].BidDate)
	})

	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// memoryFundingTx копит записи до завершения единицы работы. Мьютекс хранилища уже захвачен.
type memoryFundingTx struct {
	store   *MemoryStore
	bids    []models.Bid
	updates map[string]models.Operation
}

func (t *memoryFundingTx) InsertBid(_ context.Context, bid *models.Bid) error {
	if _, exists := t.store.bids[bid.ID]; exists {
		return models.ErrConflict
	}
	if _, ok := t.store.operations[bid.OperationID]; !ok {
		return models.ErrConflict
	}
	if _, ok := t.store.users[bid.InvestorID]; !ok {
		return models.ErrConflict
	}
	t.bids = append(t.bids, *bid)
	return nil
}

func (t *memoryFundingTx) UpdateCollected(_ context.Context, operationId string, collected decimal.Decimal, closed bool) error {
	op, ok := t.updates[operationId]
	if !ok {
		if op, ok = t.store.operations[operationId]; !ok {
			return models.ErrNotFound
		}
	}
	op.AmountCollected = collected
	op.IsClosed = closed
	t.updates[operationId] = op
	return nil
}
