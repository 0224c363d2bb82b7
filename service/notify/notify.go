package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pandodao/coin-wallet/core"
)

const defaultCapacity = 50

// Feed keeps the most recent notifications in memory and logs each one.
type Feed struct {
	logger   *slog.Logger
	capacity int

	mux    sync.Mutex
	nextID uint64
	items  []core.Notification
}

func New(logger *slog.Logger, capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &Feed{
		logger:   logger.With("service", "notify"),
		capacity: capacity,
	}
}

func (f *Feed) Notify(kind core.NotifyKind, message string) {
	f.mux.Lock()
	f.nextID++
	f.items = append(f.items, core.Notification{
		ID:        f.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	})

	if n := len(f.items) - f.capacity; n > 0 {
		f.items = append(f.items[:0], f.items[n:]...)
	}
	f.mux.Unlock()

	level := slog.LevelInfo
	if kind == core.NotifyError {
		level = slog.LevelWarn
	}

	f.logger.Log(context.Background(), level, message, "kind", kind)
}

// Since returns the notifications with an id greater than after, oldest first.
func (f *Feed) Since(after uint64) []core.Notification {
	f.mux.Lock()
	defer f.mux.Unlock()

	var out []core.Notification
	for _, n := range f.items {
		if n.ID > after {
			out = append(out, n)
		}
	}

	return out
}
