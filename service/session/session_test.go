package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pandodao/coin-wallet/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialStore struct {
	mux   sync.Mutex
	token string
	onSet func()
}

func (s *credentialStore) Get(_ context.Context) (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.token, nil
}

func (s *credentialStore) Set(_ context.Context, token string) error {
	if s.onSet != nil {
		s.onSet()
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.token = token
	return nil
}

func (s *credentialStore) Remove(_ context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.token = ""
	return nil
}

type userService struct {
	login   func(username, password string) (string, error)
	profile func(ctx context.Context) (*core.Identity, error)
}

func (s *userService) Login(_ context.Context, username, password string) (string, error) {
	return s.login(username, password)
}

func (s *userService) Profile(ctx context.Context) (*core.Identity, error) {
	return s.profile(ctx)
}

type walletService struct {
	core.WalletService
	balances func() ([]*core.Balance, error)
}

func (s *walletService) Balances(_ context.Context) ([]*core.Balance, error) {
	return s.balances()
}

type notifier struct {
	mux      sync.Mutex
	messages []string
}

func (n *notifier) Notify(_ core.NotifyKind, message string) {
	n.mux.Lock()
	defer n.mux.Unlock()
	n.messages = append(n.messages, message)
}

func (n *notifier) count() int {
	n.mux.Lock()
	defer n.mux.Unlock()
	return len(n.messages)
}

type fixture struct {
	credentials *credentialStore
	users       *userService
	wallets     *walletService
	notifier    *notifier
	manager     *Manager
}

func newFixture(token string) *fixture {
	f := &fixture{
		credentials: &credentialStore{token: token},
		users: &userService{
			login: func(string, string) (string, error) { return "fresh", nil },
			profile: func(context.Context) (*core.Identity, error) {
				return &core.Identity{ID: "u1", Username: "alice"}, nil
			},
		},
		wallets: &walletService{
			balances: func() ([]*core.Balance, error) {
				return []*core.Balance{{Currency: core.CurrencyCoin, Amount: decimal.NewFromInt(100)}}, nil
			},
		},
		notifier: &notifier{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.manager = New(f.credentials, f.users, f.wallets, f.notifier, logger)
	return f
}

func TestInitialize(t *testing.T) {
	t.Run("stored credential", func(t *testing.T) {
		f := newFixture("tok")

		var statuses []core.SessionStatus
		f.manager.Subscribe(func(s core.Session) {
			statuses = append(statuses, s.Status)
		})

		require.NoError(t, f.manager.Initialize(context.Background()))

		s := f.manager.Snapshot()
		assert.True(t, s.Authenticated())
		assert.Equal(t, "alice", s.Identity.Username)
		coin, ok := s.Balance(core.CurrencyCoin)
		assert.True(t, ok)
		assert.True(t, coin.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, []core.SessionStatus{core.SessionStatusLoading, core.SessionStatusAuthenticated}, statuses)
	})

	t.Run("missing credential", func(t *testing.T) {
		f := newFixture("")

		var reason error
		f.manager.OnLoginRequired(func(err error) { reason = err })

		err := f.manager.Initialize(context.Background())
		assert.ErrorIs(t, err, core.ErrUnauthenticated)
		assert.ErrorIs(t, reason, core.ErrCredentialMissing)
		assert.Equal(t, core.SessionStatusUnauthenticated, f.manager.Snapshot().Status)
		assert.Zero(t, f.notifier.count())
	})
}

func TestRefreshAuthFailure(t *testing.T) {
	f := newFixture("expired")
	f.users.profile = func(context.Context) (*core.Identity, error) {
		return nil, &core.APIError{Code: http.StatusUnauthorized}
	}

	err := f.manager.Initialize(context.Background())
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	s := f.manager.Snapshot()
	assert.Equal(t, core.SessionStatusUnauthenticated, s.Status)
	assert.Nil(t, s.Identity)
	assert.Equal(t, msgSessionExpired, s.Error)

	token, _ := f.credentials.Get(context.Background())
	assert.Empty(t, token)
	assert.Equal(t, 1, f.notifier.count())
}

func TestLogin(t *testing.T) {
	f := newFixture("")

	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret"))

	token, _ := f.credentials.Get(context.Background())
	assert.Equal(t, "fresh", token)

	s := f.manager.Snapshot()
	assert.True(t, s.Authenticated())
	assert.Equal(t, uint64(1), s.Generation)
}

func TestLoginStoresCredentialOutsideLock(t *testing.T) {
	f := newFixture("")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.credentials.onSet = func() {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		done <- f.manager.Login(context.Background(), "alice", "secret")
	}()

	<-entered

	read := make(chan core.Session, 1)
	go func() {
		read <- f.manager.Snapshot()
	}()

	select {
	case s := <-read:
		assert.Equal(t, core.SessionStatusUnauthenticated, s.Status)
	case <-time.After(time.Second):
		t.Fatal("snapshot blocked by credential write")
	}

	close(release)
	require.NoError(t, <-done)
	assert.True(t, f.manager.Snapshot().Authenticated())
}

func TestRefreshAfterInFlightFetch(t *testing.T) {
	f := newFixture("tok")
	require.NoError(t, f.manager.Initialize(context.Background()))

	var (
		mux     sync.Mutex
		balance int64 = 1000
		once    sync.Once
	)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.wallets.balances = func() ([]*core.Balance, error) {
		mux.Lock()
		amount := balance
		mux.Unlock()

		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}

		return []*core.Balance{{Currency: core.CurrencyCoin, Amount: decimal.NewFromInt(amount)}}, nil
	}

	f.manager.mux.Lock()
	requested := f.manager.requested
	f.manager.mux.Unlock()

	reconciled := make(chan error, 1)
	go func() {
		reconciled <- f.manager.Reconcile(context.Background())
	}()

	<-entered

	// the debit lands while the older fetch is still in flight
	mux.Lock()
	balance = 900
	mux.Unlock()

	refreshed := make(chan error, 1)
	go func() {
		refreshed <- f.manager.Refresh(context.Background())
	}()

	assert.Eventually(t, func() bool {
		f.manager.mux.Lock()
		defer f.manager.mux.Unlock()
		return f.manager.requested == requested+2
	}, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-reconciled)
	require.NoError(t, <-refreshed)

	coin, ok := f.manager.Snapshot().Balance(core.CurrencyCoin)
	require.True(t, ok)
	assert.True(t, coin.Equal(decimal.NewFromInt(900)), "balance %s", coin)
}

func TestCancelledCallerKeepsSession(t *testing.T) {
	f := newFixture("tok")
	f.users.profile = func(ctx context.Context) (*core.Identity, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return &core.Identity{ID: "u1", Username: "alice"}, nil
	}

	require.NoError(t, f.manager.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.manager.Reconcile(ctx))
	require.NoError(t, f.manager.Refresh(ctx))

	assert.True(t, f.manager.Snapshot().Authenticated())
	token, _ := f.credentials.Get(context.Background())
	assert.Equal(t, "tok", token)
	assert.Zero(t, f.notifier.count())
}

func TestLogoutDuringRefresh(t *testing.T) {
	f := newFixture("tok")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.users.profile = func(context.Context) (*core.Identity, error) {
		close(entered)
		<-release
		return &core.Identity{ID: "u1", Username: "alice"}, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- f.manager.Initialize(context.Background())
	}()

	<-entered
	f.manager.Logout(context.Background())
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, core.ErrStaleSession)
	case <-time.After(time.Second):
		t.Fatal("refresh did not return")
	}

	s := f.manager.Snapshot()
	assert.Equal(t, core.SessionStatusUnauthenticated, s.Status)
	assert.Nil(t, s.Identity)

	token, _ := f.credentials.Get(context.Background())
	assert.Empty(t, token)
}

func TestReconcile(t *testing.T) {
	t.Run("idempotent while credential is valid", func(t *testing.T) {
		f := newFixture("tok")
		require.NoError(t, f.manager.Initialize(context.Background()))
		gen := f.manager.Snapshot().Generation

		require.NoError(t, f.manager.Reconcile(context.Background()))
		require.NoError(t, f.manager.Reconcile(context.Background()))

		s := f.manager.Snapshot()
		assert.True(t, s.Authenticated())
		assert.Equal(t, gen, s.Generation)
		assert.Zero(t, f.notifier.count())
	})

	t.Run("credential removed externally", func(t *testing.T) {
		f := newFixture("tok")
		require.NoError(t, f.manager.Initialize(context.Background()))

		require.NoError(t, f.credentials.Remove(context.Background()))

		err := f.manager.Reconcile(context.Background())
		assert.ErrorIs(t, err, core.ErrUnauthenticated)
		assert.Equal(t, core.SessionStatusUnauthenticated, f.manager.Snapshot().Status)
	})

	t.Run("refresh failure is fail closed", func(t *testing.T) {
		f := newFixture("tok")
		require.NoError(t, f.manager.Initialize(context.Background()))

		f.wallets.balances = func() ([]*core.Balance, error) {
			return nil, errors.New("connection reset")
		}

		assert.Error(t, f.manager.Reconcile(context.Background()))
		assert.Equal(t, core.SessionStatusUnauthenticated, f.manager.Snapshot().Status)
	})
}

func TestExpire(t *testing.T) {
	f := newFixture("tok")
	require.NoError(t, f.manager.Initialize(context.Background()))
	gen := f.manager.Snapshot().Generation

	cause := &core.APIError{Code: http.StatusForbidden}
	assert.ErrorIs(t, f.manager.Expire(context.Background(), gen+1, cause), core.ErrStaleSession)
	assert.True(t, f.manager.Snapshot().Authenticated())

	assert.ErrorIs(t, f.manager.Expire(context.Background(), gen, cause), core.ErrUnauthenticated)
	assert.False(t, f.manager.Snapshot().Authenticated())

	// a second auth error for the same generation is not reported again
	assert.ErrorIs(t, f.manager.Expire(context.Background(), gen, cause), core.ErrStaleSession)
	assert.Equal(t, 1, f.notifier.count())
}

func TestNormalizeBalances(t *testing.T) {
	balances, err := normalizeBalances([]*core.Balance{
		{Currency: "Coin", Amount: decimal.NewFromInt(5)},
		nil,
		{Currency: "Coin", Amount: decimal.NewFromInt(9)},
		{Currency: "Gem", Amount: decimal.Zero},
	})
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "Gem", balances[1].Currency)

	_, err = normalizeBalances([]*core.Balance{{Currency: "Coin", Amount: decimal.NewFromInt(-1)}})
	assert.Error(t, err)
}
