package transfer

import (
	"github.com/pandodao/coin-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"id",
	"created_at",
	"trace_id",
	"status",
	"game_id",
	"amount",
	"target_amount",
	"rate",
	"remote_id",
	"message",
}

func scanTransfer(scanner scanner, transfer *core.Transfer) error {
	return scanner.Scan(
		&transfer.ID,
		&transfer.CreatedAt,
		&transfer.TraceID,
		&transfer.Status,
		&transfer.GameID,
		&transfer.Amount,
		&transfer.TargetAmount,
		&transfer.Rate,
		&transfer.RemoteID,
		&transfer.Message,
	)
}
