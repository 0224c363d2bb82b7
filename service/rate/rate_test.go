package rate

import (
	"context"
	"errors"
	"testing"

	"github.com/pandodao/coin-wallet/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletService struct {
	core.WalletService
	rates []*core.ExchangeRate
	err   error
}

func (s *walletService) ExchangeRates(context.Context, int64) ([]*core.ExchangeRate, error) {
	return s.rates, s.err
}

func newRate(rate, min string) *core.ExchangeRate {
	return &core.ExchangeRate{
		GameID:      7,
		Rate:        decimal.RequireFromString(rate),
		MinTransfer: decimal.RequireFromString(min),
	}
}

func TestResolve(t *testing.T) {
	t.Run("first entry wins", func(t *testing.T) {
		r := New(&walletService{rates: []*core.ExchangeRate{newRate("2.5", "10"), newRate("9", "1")}})

		rate, err := r.Resolve(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, rate.Rate.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("empty list", func(t *testing.T) {
		r := New(&walletService{})

		_, err := r.Resolve(context.Background(), 7)
		assert.ErrorIs(t, err, core.ErrRateNotFound)
	})

	t.Run("invalid first entry", func(t *testing.T) {
		for _, bad := range []*core.ExchangeRate{newRate("0", "1"), newRate("-1", "1"), newRate("2", "-1")} {
			r := New(&walletService{rates: []*core.ExchangeRate{bad, newRate("3", "1")}})

			_, err := r.Resolve(context.Background(), 7)
			assert.ErrorIs(t, err, core.ErrInvalidRate)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		cause := errors.New("boom")
		r := New(&walletService{err: cause})

		_, err := r.Resolve(context.Background(), 7)
		assert.ErrorIs(t, err, cause)
	})
}
