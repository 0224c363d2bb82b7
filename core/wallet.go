package core

import (
	"context"

	"github.com/shopspring/decimal"
)

const CurrencyCoin = "Coin"

type Balance struct {
	ID        int64           `json:"id,omitempty"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"balance"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// ExchangeRate is the number of target currency units granted per one Coin.
type ExchangeRate struct {
	ID                 int64           `json:"id,omitempty"`
	GameID             int64           `json:"game_id"`
	Rate               decimal.Decimal `json:"rate"`
	MinTransfer        decimal.Decimal `json:"min_transfer"`
	TargetCurrencyName string          `json:"target_currency_name,omitempty"`
	Game               *Game           `json:"game,omitempty"`
}

func (r *ExchangeRate) Valid() bool {
	return r.Rate.IsPositive() && !r.MinTransfer.IsNegative()
}

// CurrencyName is the in-game currency name, preferring the nested game.
func (r *ExchangeRate) CurrencyName() string {
	if r.Game != nil && r.Game.IngameCurrencyName != "" {
		return r.Game.IngameCurrencyName
	}

	return r.TargetCurrencyName
}

type WalletService interface {
	Balances(ctx context.Context) ([]*Balance, error)
	ExchangeRates(ctx context.Context, gameID int64) ([]*ExchangeRate, error)
	TransferToGame(ctx context.Context, gameID int64, amount decimal.Decimal) (*TransferHistory, error)
	TransferHistories(ctx context.Context) ([]*TransferHistory, error)
	DepositHistories(ctx context.Context) ([]*DepositHistory, error)
	DepositMethods(ctx context.Context) (*DepositMethods, error)
	DepositPackages(ctx context.Context) ([]*DepositPackage, error)
}
