package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid представляет модель предложения инвестора.
type Bid struct {
	ID           string          `json:"id"`
	OperationID  string          `json:"operationId"`
	InvestorID   string          `json:"investorId"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interestRate"`
	BidDate      time.Time       `json:"bidDate"`
}

// BidRequest представляет структуру запроса для создания предложения.
type BidRequest struct {
	OperationID  string          `json:"operationId" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

// Validate проверяет запрос на создание предложения.
func (r BidRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if err := validateAmount("amount", r.Amount); err != nil {
		return err
	}
	return validateRate(r.InterestRate)
}
