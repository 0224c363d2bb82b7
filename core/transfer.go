package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest lives for one workflow run, from a validated amount to settlement.
type TransferRequest struct {
	GameID       int64           `json:"game_id"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         *ExchangeRate   `json:"rate"`
	TargetAmount int64           `json:"target_amount"`
}

func NewTransferRequest(gameID int64, amount decimal.Decimal, rate *ExchangeRate) *TransferRequest {
	return &TransferRequest{
		GameID:       gameID,
		Amount:       amount,
		Rate:         rate,
		TargetAmount: ProjectTarget(amount, rate.Rate),
	}
}

// MaxTargetAmount is the largest projection a request can carry.
var MaxTargetAmount = decimal.NewFromInt(math.MaxInt64)

// ProjectTarget truncates amount*rate toward negative infinity. The projection
// must never exceed what the backend grants. Projections beyond
// MaxTargetAmount are clamped; callers reject them with TargetInRange.
func ProjectTarget(amount, rate decimal.Decimal) int64 {
	target := amount.Mul(rate).Floor()
	if target.GreaterThan(MaxTargetAmount) {
		return math.MaxInt64
	}

	return target.IntPart()
}

func TargetInRange(amount, rate decimal.Decimal) bool {
	return !amount.Mul(rate).Floor().GreaterThan(MaxTargetAmount)
}

type TransferStatus uint8

const (
	_ TransferStatus = iota
	TransferStatusPending
	TransferStatusAccepted
	TransferStatusCompleted
	TransferStatusFailed
)

func (s TransferStatus) String() string {
	switch s {
	case TransferStatusPending:
		return "Pending"
	case TransferStatusAccepted:
		return "Accepted"
	case TransferStatusCompleted:
		return "Completed"
	case TransferStatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("TransferStatus(%d)", uint8(s))
	}
}

func (s TransferStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s TransferStatus) Settled() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

// Transfer is the local journal entry of one confirmed submission.
type Transfer struct {
	ID           uint64          `json:"id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	TraceID      string          `json:"trace_id"`
	Status       TransferStatus  `json:"status"`
	GameID       int64           `json:"game_id"`
	Amount       decimal.Decimal `json:"amount"`
	TargetAmount int64           `json:"target_amount"`
	Rate         decimal.Decimal `json:"rate"`
	RemoteID     int64           `json:"remote_id,omitempty"`
	Message      string          `json:"message,omitempty"`
}

type TransferStore interface {
	Create(ctx context.Context, transfer *Transfer) error
	UpdateStatus(ctx context.Context, transfer *Transfer, to TransferStatus) error
	FindTrace(ctx context.Context, traceID string) (*Transfer, error)
	ListStatus(ctx context.Context, status TransferStatus, limit int) ([]*Transfer, error)
}
