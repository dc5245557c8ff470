package biz

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

type AbstractService struct {
	db *bun.DB
}

// RunInTransaction executes fn inside a database transaction. The transaction
// rolls back on error or panic.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return a.db.RunInTx(ctx, &sql.TxOptions{}, fn)
}
