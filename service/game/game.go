package game

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/backend"
	"github.com/zyedidia/generic/cache"
)

func New(client *backend.Client) core.GameService {
	return &service{
		client: client,
		cache:  cache.New[int64, *core.Game](1024),
	}
}

type service struct {
	client *backend.Client

	cache *cache.Cache[int64, *core.Game]
	mux   sync.Mutex
}

func (s *service) List(ctx context.Context) ([]*core.Game, error) {
	query := url.Values{}
	query.Set("limit", "1000")
	query.Set("offset", "0")

	var games []*core.Game
	if err := s.client.Get(ctx, "/api/v2/games/list", query, &games); err != nil {
		return nil, err
	}

	core.SortGames(games)

	s.mux.Lock()
	for _, g := range games {
		s.cache.Put(g.ID, g)
	}
	s.mux.Unlock()

	return games, nil
}

func (s *service) Find(ctx context.Context, id int64) (*core.Game, error) {
	s.mux.Lock()
	v, ok := s.cache.Get(id)
	s.mux.Unlock()
	if ok {
		return v, nil
	}

	games, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, g := range games {
		if g.ID == id {
			return g, nil
		}
	}

	return nil, fmt.Errorf("game %d: %w", id, core.ErrMissingGame)
}
