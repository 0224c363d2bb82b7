package rate

import (
	"context"
	"fmt"

	"github.com/pandodao/coin-wallet/core"
)

func New(wallets core.WalletService) *Resolver {
	return &Resolver{wallets: wallets}
}

// Resolver selects the exchange rate applicable to a game. Rates are never
// cached; every workflow run resolves again.
type Resolver struct {
	wallets core.WalletService
}

// Resolve picks the first rate the backend returns for the game. The
// ordering carries no business meaning: it is the only selection rule the
// backend contract offers today.
func (r *Resolver) Resolve(ctx context.Context, gameID int64) (*core.ExchangeRate, error) {
	rates, err := r.wallets.ExchangeRates(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}

	if len(rates) == 0 || rates[0] == nil {
		return nil, core.ErrRateNotFound
	}

	rate := rates[0]
	if !rate.Valid() {
		return nil, fmt.Errorf("game %d rate %s min %s: %w", gameID, rate.Rate, rate.MinTransfer, core.ErrInvalidRate)
	}

	return rate, nil
}
