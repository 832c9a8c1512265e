package pgsql

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zeptools/gw-contracts/db/sqldb"
)

type Result struct {
	tag pgconn.CommandTag
}

// Ensure pgsql.Result implements sqldb.Result
var _ sqldb.Result = (*Result)(nil)

func (r *Result) RowsAffected() (int64, error) {
	return r.tag.RowsAffected(), nil
}
