package reconciler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pandodao/coin-wallet/core"
	"github.com/stretchr/testify/assert"
)

type sessions struct {
	status     core.SessionStatus
	reconciles int
}

func (s *sessions) Snapshot() core.Session {
	return core.Session{Status: s.status}
}

func (s *sessions) Reconcile(context.Context) error {
	s.reconciles++
	return nil
}

func TestRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	idle := &sessions{}
	assert.NoError(t, New(idle, Config{}, logger).run(context.Background()))
	assert.Zero(t, idle.reconciles)

	live := &sessions{status: core.SessionStatusAuthenticated}
	assert.NoError(t, New(live, Config{}, logger).run(context.Background()))
	assert.Equal(t, 1, live.reconciles)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := &sessions{status: core.SessionStatusAuthenticated}
	w := New(s, Config{Interval: 10 * time.Millisecond}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
	assert.Positive(t, s.reconciles)
}
