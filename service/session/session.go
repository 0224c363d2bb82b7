package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/pandodao/coin-wallet/core"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const msgSessionExpired = "Your session has expired, please log in again"

func New(
	credentials core.CredentialStore,
	users core.UserService,
	wallets core.WalletService,
	notifier core.Notifier,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		credentials: credentials,
		users:       users,
		wallets:     wallets,
		notifier:    notifier,
		logger:      logger.With("service", "session"),
	}
}

// Manager is the only writer of the Session. Every fetch result is applied
// only if the session generation it started under is still current, so a
// refresh racing a logout can never resurrect an authenticated state.
type Manager struct {
	credentials core.CredentialStore
	users       core.UserService
	wallets     core.WalletService
	notifier    core.Notifier
	logger      *slog.Logger
	sf          singleflight.Group

	// pub serializes mutation + delivery so subscribers observe changes in
	// order. Lock order is pub then mux.
	pub sync.Mutex

	mux           sync.Mutex
	session       core.Session
	generation    uint64
	requested     uint64 // refresh requests so far
	fetched       uint64 // requests covered by the last applied fetch
	subscribers   []subscriber
	nextSub       uint64
	loginRequired func(reason error)
}

type subscriber struct {
	id uint64
	fn func(core.Session)
}

// OnLoginRequired registers the hook used to route the user to a login entry point.
func (m *Manager) OnLoginRequired(fn func(reason error)) {
	m.mux.Lock()
	m.loginRequired = fn
	m.mux.Unlock()
}

func (m *Manager) Snapshot() core.Session {
	m.mux.Lock()
	defer m.mux.Unlock()

	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() core.Session {
	s := m.session
	if s.Balances != nil {
		s.Balances = append([]*core.Balance(nil), s.Balances...)
	}

	return s
}

// Subscribe registers fn for every session change. fn runs synchronously and
// must not call back into methods that change the session.
func (m *Manager) Subscribe(fn func(core.Session)) func() {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.mux.Lock()
		defer m.mux.Unlock()

		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) update(fn func() bool) {
	m.pub.Lock()
	defer m.pub.Unlock()

	m.mux.Lock()
	if !fn() {
		m.mux.Unlock()
		return
	}

	snapshot := m.snapshotLocked()
	subscribers := append([]subscriber(nil), m.subscribers...)
	m.mux.Unlock()

	for _, s := range subscribers {
		s.fn(snapshot)
	}
}

// Initialize starts the session from the stored credential.
func (m *Manager) Initialize(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	token, err := m.credentials.Get(ctx)
	if err != nil {
		m.logger.Error("credentials.Get", "err", err)
		return m.fail(ctx, m.currentGeneration(), fmt.Errorf("read credential: %w", err))
	}

	if token == "" {
		m.logger.Info("no stored credential")
		m.routeLogin(core.ErrCredentialMissing)
		return core.ErrUnauthenticated
	}

	return m.Refresh(ctx)
}

// Login exchanges username and password for a credential and starts a new session.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.users.Login(ctx, username, password)
	if err != nil {
		m.logger.Info("users.Login", "username", username, "err", err)
		m.notifier.Notify(core.NotifyError, core.ErrorMessage(err, "Login failed, please check your username and password"))
		return err
	}

	if err := m.credentials.Set(ctx, token); err != nil {
		m.logger.Error("credentials.Set", "err", err)
		return fmt.Errorf("store credential: %w", err)
	}

	m.update(func() bool {
		m.generation++
		m.session = core.Session{
			Generation: m.generation,
			Status:     core.SessionStatusLoading,
		}
		return true
	})

	return m.Refresh(ctx)
}

// Refresh fetches identity and balances and replaces both atomically. Any
// failure is treated as a dead session: the credential is cleared.
//
// Concurrent callers share one fetch, but a caller never settles for a fetch
// that started before its own request. The fetch outlives the caller's ctx;
// the backend client timeout bounds it.
func (m *Manager) Refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var gen, seq uint64
	m.update(func() bool {
		gen = m.generation
		m.requested++
		seq = m.requested
		if m.session.Status != core.SessionStatusUnauthenticated {
			return false
		}

		m.session = core.Session{
			Generation: gen,
			Status:     core.SessionStatusLoading,
		}
		return true
	})

	key := strconv.FormatUint(gen, 10)
	for {
		_, err, _ := m.sf.Do(key, func() (any, error) {
			return nil, m.refresh(ctx, gen)
		})

		if err != nil || m.covered(seq) {
			return err
		}

		m.logger.Debug("joined an older fetch, refresh again", "generation", gen)
	}
}

func (m *Manager) covered(seq uint64) bool {
	m.mux.Lock()
	defer m.mux.Unlock()

	return m.fetched >= seq
}

func (m *Manager) refresh(ctx context.Context, gen uint64) error {
	m.mux.Lock()
	started := m.requested
	m.mux.Unlock()

	token, err := m.credentials.Get(ctx)
	if err != nil {
		m.logger.Error("credentials.Get", "err", err)
		return m.fail(ctx, gen, fmt.Errorf("read credential: %w", err))
	}

	if token == "" {
		return m.fail(ctx, gen, core.ErrCredentialMissing)
	}

	identity, balances, err := m.fetch(ctx)
	if err != nil {
		m.logger.Info("fetch session failed", "generation", gen, "err", err)
		return m.fail(ctx, gen, err)
	}

	var stale bool
	m.update(func() bool {
		if m.generation != gen {
			stale = true
			return false
		}

		m.session = core.Session{
			Generation: gen,
			Status:     core.SessionStatusAuthenticated,
			Identity:   identity,
			Balances:   balances,
		}
		m.fetched = max(m.fetched, started)
		return true
	})

	if stale {
		m.logger.Debug("discard stale refresh", "generation", gen)
		return core.ErrStaleSession
	}

	return nil
}

func (m *Manager) fetch(ctx context.Context) (*core.Identity, []*core.Balance, error) {
	var (
		identity *core.Identity
		balances []*core.Balance
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if identity, err = m.users.Profile(ctx); err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error
		if balances, err = m.wallets.Balances(ctx); err != nil {
			return fmt.Errorf("fetch balances: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	balances, err := normalizeBalances(balances)
	if err != nil {
		return nil, nil, err
	}

	return identity, balances, nil
}

// normalizeBalances keeps one balance per currency (first wins) and rejects
// negative amounts.
func normalizeBalances(balances []*core.Balance) ([]*core.Balance, error) {
	seen := mapset.New[string]()
	out := make([]*core.Balance, 0, len(balances))

	for _, b := range balances {
		if b == nil || seen.Has(b.Currency) {
			continue
		}

		if b.Amount.IsNegative() {
			return nil, fmt.Errorf("negative %s balance %s", b.Currency, b.Amount)
		}

		seen.Put(b.Currency)
		out = append(out, b)
	}

	return out, nil
}

// Reconcile is invoked whenever the application regains user attention.
func (m *Manager) Reconcile(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	gen := m.currentGeneration()

	token, err := m.credentials.Get(ctx)
	if err != nil {
		m.logger.Error("credentials.Get", "err", err)
		return m.fail(ctx, gen, fmt.Errorf("read credential: %w", err))
	}

	if token == "" {
		return m.fail(ctx, gen, core.ErrCredentialMissing)
	}

	return m.Refresh(ctx)
}

func (m *Manager) Expire(ctx context.Context, generation uint64, cause error) error {
	return m.fail(ctx, generation, cause)
}

// Logout is safe from any state; in-flight refreshes are discarded.
func (m *Manager) Logout(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	m.update(func() bool {
		if err := m.credentials.Remove(ctx); err != nil {
			m.logger.Error("credentials.Remove", "err", err)
		}

		m.generation++
		m.session = core.Session{Generation: m.generation}
		return true
	})

	m.logger.Info("logged out")
	m.routeLogin(nil)
}

func (m *Manager) fail(ctx context.Context, gen uint64, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var (
		stale    bool
		previous core.SessionStatus
	)

	m.update(func() bool {
		if m.generation != gen {
			stale = true
			return false
		}

		previous = m.session.Status
		if previous == core.SessionStatusUnauthenticated {
			return false
		}

		if err := m.credentials.Remove(ctx); err != nil {
			m.logger.Error("credentials.Remove", "err", err)
		}

		m.generation++
		m.session = core.Session{
			Generation: m.generation,
			Error:      core.ErrorMessage(cause, msgSessionExpired),
		}
		return true
	})

	if stale {
		m.logger.Debug("discard stale failure", "generation", gen, "err", cause)
		return core.ErrStaleSession
	}

	if previous != core.SessionStatusUnauthenticated {
		m.logger.Info("session reset", "generation", gen, "err", cause)
		m.notifier.Notify(core.NotifyError, core.ErrorMessage(cause, msgSessionExpired))
	}

	m.routeLogin(cause)

	if errors.Is(cause, core.ErrUnauthenticated) {
		return cause
	}

	return fmt.Errorf("%w: %w", core.ErrUnauthenticated, cause)
}

func (m *Manager) currentGeneration() uint64 {
	m.mux.Lock()
	defer m.mux.Unlock()

	return m.generation
}

func (m *Manager) routeLogin(reason error) {
	m.mux.Lock()
	fn := m.loginRequired
	m.mux.Unlock()

	if fn != nil {
		fn(reason)
	}
}
