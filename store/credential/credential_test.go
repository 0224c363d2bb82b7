package credential

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pandodao/coin-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type propertyStore map[string][]byte

func (s propertyStore) Get(_ context.Context, key string, value any) error {
	raw, ok := s[key]
	if !ok {
		return nil
	}

	return json.Unmarshal(raw, value)
}

func (s propertyStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	s[key] = raw
	return err
}

func (s propertyStore) Delete(_ context.Context, key string) error {
	delete(s, key)
	return nil
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	properties := propertyStore{}
	s := New(properties)

	token, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Set(ctx, "tok"))
	assert.Contains(t, properties, core.CredentialKey)

	token, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, s.Remove(ctx))
	token, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
