package property

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/store"
	"github.com/tsenart/nap"
)

type propertyStore struct {
	db *nap.DB
}

func New(db *nap.DB) core.PropertyStore {
	return &propertyStore{db: db}
}

// Get decodes the stored value into value. A missing key leaves value untouched.
func (s *propertyStore) Get(ctx context.Context, key string, value any) error {
	var raw []byte
	err := sq.Select("`value`").
		From("properties").
		Where("`key` = ?", key).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&raw)

	switch {
	case err == nil:
		return json.Unmarshal(raw, value)
	case store.IsErrNotFound(err):
		return nil
	default:
		return fmt.Errorf("get property %s: %w", key, err)
	}
}

func (s *propertyStore) Set(ctx context.Context, key string, value any) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	r, err := sq.Update("properties").
		Set("`value`", jsonValue).
		Set("`version`", sq.Expr("`version` + 1")).
		Set("updated_at", time.Now()).
		Where("`key` = ?", key).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to set property: %w", err)
	}

	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		return nil
	}

	_, err = sq.Insert("properties").
		Columns("`key`", "`value`", "updated_at").
		Values(key, jsonValue, time.Now()).
		RunWith(s.db).
		ExecContext(ctx)
	return err
}

func (s *propertyStore) Delete(ctx context.Context, key string) error {
	_, err := sq.Delete("properties").
		Where("`key` = ?", key).
		RunWith(s.db).
		ExecContext(ctx)
	return err
}
