package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Tx is the slice of pgx.Tx the handlers need. Keeping it small lets
// handler tests fake a transaction without touching a database.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

var errNotPgxTx = errors.New("tx is not a pgx transaction")

func pgxTx(tx Tx) (pgx.Tx, error) {
	ptx, ok := tx.(pgx.Tx)

	if !ok {
		return nil, errNotPgxTx
	}

	return ptx, nil
}
