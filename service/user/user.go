package user

import (
	"context"
	"errors"

	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/backend"
)

func New(client *backend.Client) core.UserService {
	return &service{client: client}
}

type service struct {
	client *backend.Client
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp struct {
		User  *core.Identity `json:"user"`
		Token string         `json:"token"`
	}

	if err := s.client.Post(ctx, "/api/v2/auth/login", body, &resp); err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", errors.New("login response without token")
	}

	return resp.Token, nil
}

func (s *service) Profile(ctx context.Context) (*core.Identity, error) {
	var identity core.Identity
	if err := s.client.Get(ctx, "/api/v2/auth/profile", nil, &identity); err != nil {
		return nil, err
	}

	if identity.ID == "" {
		return nil, errors.New("profile response without identity")
	}

	return &identity, nil
}
