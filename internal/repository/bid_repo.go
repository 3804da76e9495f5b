package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectBid = `SELECT id, operation_id, investor_id, amount::text, interest_rate::text, bid_date FROM bid`

// PostgresBidRepository - реализация BidRepository для базы данных.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository создает новый экземпляр PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// GetBid возвращает предложение по ID.
func (r *PostgresBidRepository) GetBid(ctx context.Context, bidId string) (*models.Bid, error) {
	bid, err := scanBid(r.DB.QueryRow(ctx, selectBid+` WHERE id = $1`, bidId))
	if err != nil {
		return nil, pgError("get bid", err)
	}
	return bid, nil
}

// ListOperationBids возвращает список предложений по операции.
func (r *PostgresBidRepository) ListOperationBids(ctx context.Context, operationId string, limit, offset int) ([]models.Bid, error) {
	query := selectBid + `
		WHERE operation_id = $1
		ORDER BY bid_date, id
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, operationId, limit, offset)
	if err != nil {
		return nil, pgError("list bids", err)
	}
	defer rows.Close()

	bids := make([]models.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, pgError("scan bid", err)
		}
		bids = append(bids, *bid)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list bids", err)
	}
	return bids, nil
}

func scanBid(row rowScanner) (*models.Bid, error) {
	var (
		bid          models.Bid
		amount, rate string
	)
	err := row.Scan(
		&bid.ID,
		&bid.OperationID,
		&bid.InvestorID,
		&amount,
		&rate,
		&bid.BidDate,
	)
	if err != nil {
		return nil, err
	}
	if bid.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if bid.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
	}
	bid.BidDate = bid.BidDate.UTC()
	return &bid, nil
}
