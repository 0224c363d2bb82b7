package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type SessionStatus uint8

const (
	SessionStatusUnauthenticated SessionStatus = iota
	SessionStatusLoading
	SessionStatusAuthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusUnauthenticated:
		return "unauthenticated"
	case SessionStatusLoading:
		return "loading"
	case SessionStatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("SessionStatus(%d)", uint8(s))
	}
}

func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Identity is the profile snapshot of the logged in user. It is replaced
// wholesale on every successful refresh.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Dob       string `json:"dob,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Address   string `json:"address,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Roles     string `json:"roles,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Session is the client's belief about the current user. Error holds the
// message of the failure that last reset the session, if any.
type Session struct {
	Generation uint64        `json:"generation"`
	Status     SessionStatus `json:"status"`
	Identity   *Identity     `json:"identity,omitempty"`
	Balances   []*Balance    `json:"balances,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Status == SessionStatusAuthenticated
}

func (s Session) Balance(currency string) (decimal.Decimal, bool) {
	for _, b := range s.Balances {
		if b.Currency == currency {
			return b.Amount, true
		}
	}

	return decimal.Zero, false
}

// SessionManager is the read side of the session plus the refresh trigger
// other components are allowed to use.
type SessionManager interface {
	Snapshot() Session
	Subscribe(fn func(Session)) (cancel func())
	Refresh(ctx context.Context) error
	// Expire resets the session if it is still at generation, used when a
	// backend call reports an auth failure.
	Expire(ctx context.Context, generation uint64, cause error) error
}

type UserService interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	Profile(ctx context.Context) (*Identity, error)
}
