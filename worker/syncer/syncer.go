package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/pandodao/coin-wallet/core"
	"github.com/zyedidia/generic/mapset"
)

type Config struct {
	Interval time.Duration
}

func New(
	transfers core.TransferStore,
	wallets core.WalletService,
	sessions core.SessionManager,
	cfg Config,
	logger *slog.Logger,
) *Syncer {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}

	return &Syncer{
		transfers: transfers,
		wallets:   wallets,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger.With("worker", "syncer"),
	}
}

// Syncer settles journal entries the backend accepted but had not finished
// when the workflow returned, using the remote transfer history.
type Syncer struct {
	transfers core.TransferStore
	wallets   core.WalletService
	sessions  core.SessionManager
	cfg       Config
	logger    *slog.Logger
}

func (w *Syncer) Run(ctx context.Context) error {
	w.logger.Info("syncer start", "interval", w.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			_ = w.run(ctx)
		}
	}
}

func (w *Syncer) run(ctx context.Context) error {
	session := w.sessions.Snapshot()
	if !session.Authenticated() {
		return nil
	}

	const limit = 100
	transfers, err := w.transfers.ListStatus(ctx, core.TransferStatusAccepted, limit)
	if err != nil {
		w.logger.Error("transfers.ListStatus", "err", err)
		return err
	}

	if len(transfers) == 0 {
		return nil
	}

	histories, err := w.wallets.TransferHistories(ctx)
	if err != nil {
		w.logger.Error("wallets.TransferHistories", "err", err)
		if core.IsAuthError(err) {
			_ = w.sessions.Expire(ctx, session.Generation, err)
		}

		return err
	}

	remote := make(map[int64]*core.TransferHistory, len(histories))
	for _, h := range histories {
		remote[h.ID] = h
	}

	failed := mapset.New[string]()
	failed.Put(core.RemoteStatusFailed)
	failed.Put(core.RemoteStatusCancelled)

	var settled int
	for _, t := range transfers {
		h, ok := remote[t.RemoteID]
		if !ok || h.Status == core.RemoteStatusPending {
			continue
		}

		to := core.TransferStatusCompleted
		if failed.Has(h.Status) {
			to = core.TransferStatusFailed
			t.Message = h.Status
		}

		if err := w.transfers.UpdateStatus(ctx, t, to); err != nil {
			w.logger.Error("transfers.UpdateStatus", "trace", t.TraceID, "err", err)
			continue
		}

		w.logger.Info("transfer settled", "trace", t.TraceID, "remote", t.RemoteID, "status", to)
		settled++
	}

	if settled > 0 {
		if err := w.sessions.Refresh(ctx); err != nil {
			w.logger.Info("sessions.Refresh", "err", err)
		}
	}

	return nil
}
