package users

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/zeptools/gw-contracts/db/sqldb"
)

//go:embed sql
var sqlFS embed.FS

const stmtGroup = "users"

var listOrder = []sqldb.OrderBy{{Column: sqldb.NewColumnOrPanic("username")}}

// SQLStore keeps records in the contract_users table.
type SQLStore struct {
	h     sqldb.Handle
	stmts *sqldb.RawSQLStore
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(h sqldb.Handle) (*SQLStore, error) {
	stmts := sqldb.NewRawStore()
	if err := stmts.Load(sqlFS, "sql", stmtGroup, h.DBType()); err != nil {
		return nil, err
	}
	return &SQLStore{h: h, stmts: stmts}, nil
}

func (s *SQLStore) stmt(name string) string {
	return s.stmts.MustGet(stmtGroup + "." + name)
}

// Migrate creates the table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.h.Exec(ctx, s.stmt("create_table")); err != nil {
		return fmt.Errorf("users: migrate: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, username string) (*Record, error) {
	rec, err := sqldb.QueryItem[Record, *Record](ctx, s.h, s.stmt("get"), username)
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: get %s: %w", username, err)
	}
	return rec, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*Record, error) {
	recs, err := sqldb.QueryItems[Record, *Record](ctx, s.h, s.stmt("list")+sqldb.OrderByClause(listOrder))
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) Put(ctx context.Context, rec *Record) error {
	_, err := s.h.Exec(ctx, s.stmt("upsert"),
		rec.Username, rec.PasswordHash, string(rec.Role), rec.Unidade, rec.Endereco, rec.Cirurgiao)
	if err != nil {
		return fmt.Errorf("users: put %s: %w", rec.Username, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, username string) error {
	res, err := s.h.Exec(ctx, s.stmt("delete"), username)
	if err != nil {
		return fmt.Errorf("users: delete %s: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
