package notify

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pandodao/coin-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed(t *testing.T) {
	f := New(slog.New(slog.NewTextHandler(io.Discard, nil)), 2)

	f.Notify(core.NotifyInfo, "one")
	f.Notify(core.NotifyError, "two")
	f.Notify(core.NotifySuccess, "three")

	all := f.Since(0)
	require.Len(t, all, 2)
	assert.Equal(t, "two", all[0].Message)
	assert.Equal(t, "three", all[1].Message)
	assert.Equal(t, uint64(3), all[1].ID)

	after := f.Since(2)
	require.Len(t, after, 1)
	assert.Equal(t, core.NotifySuccess, after[0].Kind)
}
