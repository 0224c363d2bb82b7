package wallet

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/backend"
	"github.com/shopspring/decimal"
)

type service struct {
	client *backend.Client
}

func New(client *backend.Client) core.WalletService {
	return &service{client: client}
}

func (s *service) Balances(ctx context.Context) ([]*core.Balance, error) {
	var balances []*core.Balance
	if err := s.client.Get(ctx, "/api/v2/wallets/balances", nil, &balances); err != nil {
		return nil, err
	}

	return balances, nil
}

func (s *service) ExchangeRates(ctx context.Context, gameID int64) ([]*core.ExchangeRate, error) {
	query := url.Values{}
	query.Set("gameId", strconv.FormatInt(gameID, 10))

	var rates []*core.ExchangeRate
	if err := s.client.Get(ctx, "/api/v2/wallets/exchange-rates", query, &rates); err != nil {
		return nil, err
	}

	for _, r := range rates {
		if r.GameID == 0 {
			r.GameID = gameID
		}

		if r.TargetCurrencyName == "" {
			r.TargetCurrencyName = r.CurrencyName()
		}
	}

	return rates, nil
}

func (s *service) TransferToGame(ctx context.Context, gameID int64, amount decimal.Decimal) (*core.TransferHistory, error) {
	body := struct {
		GameID int64       `json:"game_id"`
		Amount json.Number `json:"amount"`
	}{
		GameID: gameID,
		Amount: json.Number(amount.String()),
	}

	var record core.TransferHistory
	if err := s.client.Post(ctx, "/api/v2/wallets/transfer-to-game", body, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (s *service) TransferHistories(ctx context.Context) ([]*core.TransferHistory, error) {
	var histories []*core.TransferHistory
	if err := s.client.Get(ctx, "/api/v2/wallets/transfer-histories", nil, &histories); err != nil {
		return nil, err
	}

	core.SortTransferHistories(histories)
	return histories, nil
}

func (s *service) DepositHistories(ctx context.Context) ([]*core.DepositHistory, error) {
	var histories []*core.DepositHistory
	if err := s.client.Get(ctx, "/api/v2/wallets/deposit-histories", nil, &histories); err != nil {
		return nil, err
	}

	core.SortDepositHistories(histories)
	return histories, nil
}

func (s *service) DepositMethods(ctx context.Context) (*core.DepositMethods, error) {
	var methods core.DepositMethods
	if err := s.client.Get(ctx, "/api/v2/wallets/deposit-methods", nil, &methods); err != nil {
		return nil, err
	}

	return &methods, nil
}

func (s *service) DepositPackages(ctx context.Context) ([]*core.DepositPackage, error) {
	var packages []*core.DepositPackage
	if err := s.client.Get(ctx, "/api/v2/wallets/deposit-packages", nil, &packages); err != nil {
		return nil, err
	}

	return packages, nil
}
