package sqldb

import (
	"context"
	"errors"
)

var ErrNoRows = errors.New("sqldb: no rows in result set")

type Client interface {
	Init() error
	Close() error
	Handle // Methods required for Handle are also required, so, promote it
	Conf() *Conf
	DSN() string
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
}

// Handle runs statements. Queries use the placeholder style of DBType.
type Handle interface {
	DBType() string
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error) // Eager. Fail upfront on statement execution
	QueryRow(ctx context.Context, query string, args ...any) Row            // Lazy. only fails at Scan()
}
