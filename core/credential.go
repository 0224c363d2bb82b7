package core

import "context"

// CredentialKey is the property key the bearer token is persisted under.
const CredentialKey = "access_token"

// CredentialStore holds the single bearer token of the current user.
// Get returns an empty string when no token is stored.
type CredentialStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}
