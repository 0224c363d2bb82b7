package exchange

import (
	"fmt"

	"github.com/pandodao/coin-wallet/core"
	"github.com/shopspring/decimal"
)

type State uint8

const (
	StateIdle State = iota
	StateRateLoading
	StateAwaitingAmount
	StateConfirmPending
	StateSubmitting
	StateSettled
	// StateFailed is the error state of a run that cannot continue: missing
	// game or no usable exchange rate.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRateLoading:
		return "rate_loading"
	case StateAwaitingAmount:
		return "awaiting_amount"
	case StateConfirmPending:
		return "confirm_pending"
	case StateSubmitting:
		return "submitting"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return ""
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// View is a snapshot of one workflow instance for the presentation layer.
type View struct {
	Epoch      uint64                `json:"epoch"`
	State      State                 `json:"state"`
	Outcome    Outcome               `json:"outcome,omitempty"`
	GameID     int64                 `json:"game_id,omitempty"`
	Rate       *core.ExchangeRate    `json:"rate,omitempty"`
	Amount     string                `json:"amount"`
	Request    *core.TransferRequest `json:"request,omitempty"`
	InputError string                `json:"input_error,omitempty"`
	Message    string                `json:"message,omitempty"`
	Transfer   *core.TransferHistory `json:"transfer,omitempty"`
}

// ValidationError is a local precondition failure on the entered amount. It
// never reaches the backend.
type ValidationError struct {
	Reason  string
	Minimum decimal.Decimal
}

func (e *ValidationError) Error() string {
	return e.Reason
}

type Quote struct {
	Amount       decimal.Decimal `json:"amount"`
	TargetAmount int64           `json:"target_amount"`
	Currency     string          `json:"currency"`
	Rate         decimal.Decimal `json:"rate"`
	MinTransfer  decimal.Decimal `json:"min_transfer"`
}
