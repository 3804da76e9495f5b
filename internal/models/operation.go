package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout - формат даты дедлайна в запросах.
const DateLayout = "2006-01-02"

// Operation представляет модель операции финансирования.
type Operation struct {
	ID              string          `json:"id"`
	OperatorID      string          `json:"operatorId"`
	AmountRequired  decimal.Decimal `json:"amountRequired"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	Deadline        time.Time       `json:"deadline"`
	AmountCollected decimal.Decimal `json:"amountCollected"`
	IsClosed        bool            `json:"isClosed"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OperationRequest представляет структуру запроса для создания операции.
type OperationRequest struct {
	AmountRequired decimal.Decimal `json:"amountRequired"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	Deadline       string          `json:"deadline" validate:"required,datetime=2006-01-02"`
}

// Validate проверяет запрос на создание операции.
func (r OperationRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if err := validateAmount("amountRequired", r.AmountRequired); err != nil {
		return err
	}
	return validateRate(r.InterestRate)
}

// DeadlineDate возвращает дедлайн запроса как дату в UTC.
func (r OperationRequest) DeadlineDate() (time.Time, error) {
	deadline, err := time.ParseInLocation(DateLayout, r.Deadline, time.UTC)
	if err != nil {
		return time.Time{}, ValidationError{Field: "deadline", Message: "expected YYYY-MM-DD"}
	}
	return deadline, nil
}

// DateOf отбрасывает время суток, оставляя дату в UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsExpired сообщает, прошла ли дата дедлайна на момент now.
// Операция принимает предложения весь день дедлайна.
func (o *Operation) IsExpired(now time.Time) bool {
	return DateOf(now).After(DateOf(o.Deadline))
}

// IsActive сообщает, открыта ли операция и не истек ли её срок.
func (o *Operation) IsActive(now time.Time) bool {
	return !o.IsClosed && !o.IsExpired(now)
}

// Remaining возвращает сумму, которую ещё можно собрать.
func (o *Operation) Remaining() decimal.Decimal {
	return o.AmountRequired.Sub(o.AmountCollected)
}

// CheckBid проверяет, может ли операция принять предложение на сумму amount.
// Порядок проверок: закрыта, истекла, превышение суммы.
func (o *Operation) CheckBid(amount decimal.Decimal, now time.Time) error {
	if o.IsClosed {
		return ErrOperationClosed
	}
	if o.IsExpired(now) {
		return ErrOperationExpired
	}
	if o.AmountRequired.LessThan(o.AmountCollected.Add(amount)) {
		return ErrAmountExceedsCapacity
	}
	return nil
}

// ApplyBid возвращает новое собранное значение и признак закрытия после учета предложения.
func (o *Operation) ApplyBid(amount decimal.Decimal) (decimal.Decimal, bool) {
	collected := o.AmountCollected.Add(amount)
	return collected, collected.Equal(o.AmountRequired)
}
