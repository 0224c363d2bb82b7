package core

import (
	"context"
	"sort"
)

type Game struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`
	Status             string `json:"status,omitempty"`
	Sort               int    `json:"sort"`
	IngameCurrencyName string `json:"ingame_currency_name,omitempty"`
}

func (g *Game) Active() bool {
	return g.Status == "" || g.Status == "active"
}

// SortGames orders games by their sort field, keeping backend order on ties.
func SortGames(games []*Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Sort < games[j].Sort
	})
}

type GameService interface {
	List(ctx context.Context) ([]*Game, error)
	Find(ctx context.Context, id int64) (*Game, error)
}
