package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pandodao/coin-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialStore struct {
	token string
}

func (s *credentialStore) Get(context.Context) (string, error) { return s.token, nil }
func (s *credentialStore) Set(_ context.Context, token string) error {
	s.token = token
	return nil
}
func (s *credentialStore) Remove(context.Context) error {
	s.token = ""
	return nil
}

func newTestClient(t *testing.T, token, locale string, h http.HandlerFunc) *Client {
	t.Helper()

	svr := httptest.NewServer(h)
	t.Cleanup(svr.Close)

	return New(&credentialStore{token: token}, Config{
		Endpoint: svr.URL,
		Locale:   locale,
	})
}

func TestGet(t *testing.T) {
	c := newTestClient(t, "tok", "en", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "7", r.URL.Query().Get("gameId"))

		_, _ = w.Write([]byte(`{"code":200,"data":{"name":"alice"}}`))
	})

	query := url.Values{}
	query.Set("gameId", "7")

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Get(context.Background(), "/api/v2/profile", query, &out))
	assert.Equal(t, "alice", out.Name)
}

func TestNoCredential(t *testing.T) {
	c := newTestClient(t, "", "vi", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"code":200,"data":null}`))
	})

	require.NoError(t, c.Post(context.Background(), "/api/v2/auth/login", map[string]string{"username": "a"}, nil))
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    int
		message string
		auth    bool
	}{
		{
			name:    "application error",
			status:  http.StatusOK,
			body:    `{"code":400,"errors":{"vi":"Số dư không đủ","en":"insufficient balance"}}`,
			code:    400,
			message: "Số dư không đủ",
		},
		{
			name:    "unauthorized envelope",
			status:  http.StatusUnauthorized,
			body:    `{"code":401,"errors":{"en":"token expired"}}`,
			code:    401,
			message: "token expired",
			auth:    true,
		},
		{
			name:   "http error without envelope",
			status: http.StatusForbidden,
			body:   `forbidden`,
			code:   403,
			auth:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "tok", "vi", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Get(context.Background(), "/api/v2/wallets/balances", nil, nil)

			var apiErr *core.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message())
			assert.Equal(t, tt.auth, core.IsAuthError(err))
		})
	}
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, "tok", "vi", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	})

	err := c.Get(context.Background(), "/api/v2/wallets/balances", nil, nil)
	require.Error(t, err)

	var apiErr *core.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestConfigValidation(t *testing.T) {
	assert.Panics(t, func() {
		New(&credentialStore{}, Config{Endpoint: "not a url"})
	})

	assert.Panics(t, func() {
		New(&credentialStore{}, Config{Endpoint: "http://localhost:8080", Locale: "fr"})
	})
}
