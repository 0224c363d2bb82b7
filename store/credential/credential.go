package credential

import (
	"context"

	"github.com/pandodao/coin-wallet/core"
)

func New(properties core.PropertyStore) core.CredentialStore {
	return &credentialStore{properties: properties}
}

type credentialStore struct {
	properties core.PropertyStore
}

func (s *credentialStore) Get(ctx context.Context) (string, error) {
	var token string
	if err := s.properties.Get(ctx, core.CredentialKey, &token); err != nil {
		return "", err
	}

	return token, nil
}

func (s *credentialStore) Set(ctx context.Context, token string) error {
	return s.properties.Set(ctx, core.CredentialKey, token)
}

func (s *credentialStore) Remove(ctx context.Context) error {
	return s.properties.Delete(ctx, core.CredentialKey)
}
