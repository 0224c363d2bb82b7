package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pandodao/coin-wallet/core"
)

type Session interface {
	Snapshot() core.Session
	Reconcile(ctx context.Context) error
}

type Config struct {
	Interval time.Duration
}

func New(sessions Session, cfg Config, logger *slog.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	return &Reconciler{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With("worker", "reconciler"),
	}
}

// Reconciler re-checks a live session on an interval, the headless
// equivalent of the user returning to the app.
type Reconciler struct {
	sessions Session
	cfg      Config
	logger   *slog.Logger
}

func (w *Reconciler) Run(ctx context.Context) error {
	w.logger.Info("reconciler start", "interval", w.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			_ = w.run(ctx)
		}
	}
}

func (w *Reconciler) run(ctx context.Context) error {
	if w.sessions.Snapshot().Status == core.SessionStatusUnauthenticated {
		return nil
	}

	if err := w.sessions.Reconcile(ctx); err != nil {
		w.logger.Info("sessions.Reconcile", "err", err)
		return err
	}

	return nil
}
