package game

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialStore struct{}

func (credentialStore) Get(context.Context) (string, error) { return "tok", nil }
func (credentialStore) Set(context.Context, string) error   { return nil }
func (credentialStore) Remove(context.Context) error        { return nil }

func TestListAndFind(t *testing.T) {
	var calls atomic.Int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v2/games/list", r.URL.Path)
		_, _ = io.WriteString(w, `{"code":200,"data":[
			{"id":2,"name":"Second","sort":2},
			{"id":1,"name":"First","sort":1,"ingame_currency_name":"Gold"}
		]}`)
	}))
	defer svr.Close()

	s := New(backend.New(credentialStore{}, backend.Config{Endpoint: svr.URL}))

	games, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "First", games[0].Name)

	g, err := s.Find(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Gold", g.IngameCurrencyName)
	assert.Equal(t, int32(1), calls.Load())

	_, err = s.Find(context.Background(), 99)
	assert.ErrorIs(t, err, core.ErrMissingGame)
	assert.Equal(t, int32(2), calls.Load())
}
