package transfer

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/generic"
	"github.com/tsenart/nap"
)

var errOptimisticLock = errors.New("optimistic lock failed")

func New(db *nap.DB) core.TransferStore {
	return &store{
		db:      db,
		settled: generic.Must(lru.New[string, core.Transfer](256)),
	}
}

// store journals transfers in sqlite. Settled entries never change again, so
// lookups by trace id are served from an lru once they are final.
type store struct {
	db      *nap.DB
	settled *lru.Cache[string, core.Transfer]
}

func (s *store) Create(ctx context.Context, transfer *core.Transfer) error {
	b := sq.Insert("transfers").
		Columns("created_at", "trace_id", "status", "game_id", "amount", "target_amount", "rate", "remote_id", "message").
		Values(transfer.CreatedAt, transfer.TraceID, transfer.Status, transfer.GameID, transfer.Amount, transfer.TargetAmount, transfer.Rate, transfer.RemoteID, transfer.Message)

	r, err := b.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return err
	}

	id, err := r.LastInsertId()
	if err != nil {
		return err
	}

	transfer.ID = uint64(id)
	return nil
}

// UpdateStatus moves the entry to status to, guarded by its current status.
// On success transfer reflects the stored row.
func (s *store) UpdateStatus(ctx context.Context, transfer *core.Transfer, to core.TransferStatus) error {
	if transfer.Status.Settled() {
		return fmt.Errorf("transfer %s already %s", transfer.TraceID, transfer.Status)
	}

	b := sq.Update("transfers").
		Set("status", to).
		Set("remote_id", transfer.RemoteID).
		Set("message", transfer.Message).
		Where("id = ? AND status = ?", transfer.ID, transfer.Status)

	result, err := b.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return errOptimisticLock
	}

	transfer.Status = to
	if to.Settled() {
		s.settled.Add(transfer.TraceID, *transfer)
	}

	return nil
}

func (s *store) FindTrace(ctx context.Context, traceID string) (*core.Transfer, error) {
	if t, ok := s.settled.Get(traceID); ok {
		return &t, nil
	}

	b := sq.Select(scanColumns...).
		From("transfers").
		Where("trace_id = ?", traceID)
	row := b.RunWith(s.db).QueryRowContext(ctx)

	var transfer core.Transfer
	if err := scanTransfer(row, &transfer); err != nil {
		return nil, err
	}

	if transfer.Status.Settled() {
		s.settled.Add(traceID, transfer)
	}

	return &transfer, nil
}

func (s *store) ListStatus(ctx context.Context, status core.TransferStatus, limit int) ([]*core.Transfer, error) {
	b := sq.Select(scanColumns...).
		From("transfers").
		Where("status = ?", status).
		OrderBy("id").
		Limit(uint64(limit))

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var transfers []*core.Transfer
	for rows.Next() {
		var transfer core.Transfer
		if err := scanTransfer(rows, &transfer); err != nil {
			return nil, err
		}

		transfers = append(transfers, &transfer)
	}

	return transfers, rows.Err()
}
