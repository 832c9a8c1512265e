package users

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/db/sqldb"
	"github.com/zeptools/gw-contracts/sec"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewFileStore(filepath.Join(t.TempDir(), "users.json")))
	svc.BcryptCost = bcrypt.MinCost
	return svc
}

func validUser(name string) NewUser {
	return NewUser{
		Username:  name,
		Password:  "s3nha",
		Confirm:   "s3nha",
		Role:      RoleUser,
		Unidade:   "Centro",
		Endereco:  "Rua 1, 100",
		Cirurgiao: "Dra. Ana",
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	s := NewFileStore(path)

	_, err := s.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	recs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	for _, name := range []string{"zeca", "ana"} {
		require.NoError(t, s.Put(ctx, &Record{Username: name, PasswordHash: "h", Role: RoleUser, Unidade: "u"}))
	}
	recs, err = s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, r := range recs {
		names = append(names, r.Username)
	}
	assert.Equal(t, []string{"ana", "zeca"}, names)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second store over the same file sees the data
	rec, err := NewFileStore(path).Get(ctx, "zeca")
	require.NoError(t, err)
	assert.Equal(t, "u", rec.Unidade)

	require.NoError(t, s.Delete(ctx, "zeca"))
	assert.ErrorIs(t, s.Delete(ctx, "zeca"), ErrNotFound)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).List(context.Background())
	assert.Error(t, err)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.Add(ctx, validUser("existing")))

	type testCase struct {
		name  string
		edit  func(*NewUser)
		field string
	}
	cases := []testCase{
		{"empty name", func(u *NewUser) { u.Username = "  " }, "username"},
		{"name with space", func(u *NewUser) { u.Username = "ana maria" }, "username"},
		{"bad characters", func(u *NewUser) { u.Username = "ana.maria" }, "username"},
		{"already exists", func(u *NewUser) { u.Username = "existing" }, "username"},
		{"empty password", func(u *NewUser) { u.Password, u.Confirm = "", "" }, "password"},
		{"mismatch", func(u *NewUser) { u.Confirm = "other" }, "confirm"},
		{"bad role", func(u *NewUser) { u.Role = "root" }, "role"},
		{"empty unidade", func(u *NewUser) { u.Unidade = "" }, "unidade"},
		{"empty endereco", func(u *NewUser) { u.Endereco = " " }, "endereco"},
		{"empty cirurgiao", func(u *NewUser) { u.Cirurgiao = "" }, "cirurgiao"},
		{"first failure wins", func(u *NewUser) { u.Username = "a b"; u.Password = "" }, "username"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			nu := validUser("new_user-1")
			c.edit(&nu)
			err := svc.Add(ctx, nu)
			var ie *InputError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, c.field, ie.Field)
			assert.NotEmpty(t, ie.Message)
		})
	}

	recs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.Add(ctx, validUser("maria")))

	rec, err := svc.Authenticate(ctx, "maria", "s3nha")
	require.NoError(t, err)
	assert.Equal(t, "Dra. Ana", rec.Cirurgiao)
	assert.False(t, rec.IsAdmin())
	assert.NotEqual(t, "s3nha", rec.PasswordHash)

	_, err = svc.Authenticate(ctx, "maria", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "ghost", "s3nha")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.Add(ctx, validUser("maria")))

	var ie *InputError
	assert.True(t, errors.As(svc.Remove(ctx, "maria", "maria"), &ie))
	assert.ErrorIs(t, svc.Remove(ctx, "ghost", "admin"), ErrNotFound)
	require.NoError(t, svc.Remove(ctx, "maria", "admin"))
	_, err := svc.Get(ctx, "maria")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.EnsureAdmin(ctx, BootstrapAdmin{})
	require.NoError(t, err)
	assert.False(t, created)

	boot := BootstrapAdmin{Username: "admin", Password: "admin123", Unidade: "Matriz", Endereco: "Av. Brasil", Cirurgiao: "Dr. José"}
	created, err = svc.EnsureAdmin(ctx, boot)
	require.NoError(t, err)
	assert.True(t, created)

	rec, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, rec.IsAdmin())

	created, err = svc.EnsureAdmin(ctx, boot)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDummyHashIsBcrypt(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, sec.CheckPassword(svc.dummy(), "anything"), sec.ErrPasswordMismatch)
}

// fakeHandle serves the user queries from memory and records the statements it saw.
type fakeHandle struct {
	dbType string
	recs   map[string]Record
	seen   []string
}

func (h *fakeHandle) DBType() string { return h.dbType }

func (h *fakeHandle) Exec(_ context.Context, query string, args ...any) (sqldb.Result, error) {
	h.seen = append(h.seen, query)
	switch {
	case strings.HasPrefix(query, "CREATE TABLE"):
		return fakeResult(0), nil
	case strings.HasPrefix(query, "INSERT"):
		h.recs[args[0].(string)] = Record{
			Username:     args[0].(string),
			PasswordHash: args[1].(string),
			Role:         Role(args[2].(string)),
			Unidade:      args[3].(string),
			Endereco:     args[4].(string),
			Cirurgiao:    args[5].(string),
		}
		return fakeResult(1), nil
	case strings.HasPrefix(query, "DELETE"):
		name := args[0].(string)
		if _, ok := h.recs[name]; !ok {
			return fakeResult(0), nil
		}
		delete(h.recs, name)
		return fakeResult(1), nil
	}
	return nil, errors.New("unexpected statement")
}

func (h *fakeHandle) QueryRows(_ context.Context, query string, _ ...any) (sqldb.Rows, error) {
	h.seen = append(h.seen, query)
	names := make([]string, 0, len(h.recs))
	for name := range h.recs {
		names = append(names, name)
	}
	slices.Sort(names)
	rows := &fakeRows{}
	for _, name := range names {
		rows.recs = append(rows.recs, h.recs[name])
	}
	return rows, nil
}

func (h *fakeHandle) QueryRow(_ context.Context, query string, args ...any) sqldb.Row {
	h.seen = append(h.seen, query)
	rec, ok := h.recs[args[0].(string)]
	if !ok {
		return &fakeRows{err: sqldb.ErrNoRows}
	}
	return &fakeRows{recs: []Record{rec}, pos: 1}
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type fakeRows struct {
	recs []Record
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.recs) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	rec := r.recs[r.pos-1]
	vals := []string{rec.Username, rec.PasswordHash, string(rec.Role), rec.Unidade, rec.Endereco, rec.Cirurgiao}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = vals[i]
		case *Role:
			*p = Role(vals[i])
		default:
			return errors.New("unexpected scan target")
		}
	}
	return nil
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	h := &fakeHandle{dbType: "pgsql", recs: map[string]Record{}}
	s, err := NewSQLStore(h)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	want := Record{Username: "ana", PasswordHash: "h", Role: RoleAdmin, Unidade: "u", Endereco: "e", Cirurgiao: "c"}
	require.NoError(t, s.Put(ctx, &want))
	require.NoError(t, s.Put(ctx, &Record{Username: "bia", Role: RoleUser}))

	got, err := s.Get(ctx, "ana")
	require.NoError(t, err)
	if d := cmp.Diff(want, *got); d != "" {
		t.Errorf("get (-want +got):\n%s", d)
	}
	_, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bia", list[1].Username)

	require.NoError(t, s.Delete(ctx, "bia"))
	assert.ErrorIs(t, s.Delete(ctx, "bia"), ErrNotFound)

	for _, q := range h.seen {
		assert.NotContains(t, q, "?", "placeholders not converted: %s", q)
	}
	assert.Contains(t, h.seen[len(h.seen)-1], "$1")
	var listQuery string
	for _, q := range h.seen {
		if strings.Contains(q, "ORDER BY") {
			listQuery = q
		}
	}
	assert.True(t, strings.HasSuffix(listQuery, "ORDER BY username ASC"), listQuery)
}

func TestSQLStoreMySQLDialect(t *testing.T) {
	h := &fakeHandle{dbType: "mysql", recs: map[string]Record{}}
	s, err := NewSQLStore(h)
	require.NoError(t, err)
	assert.Contains(t, s.stmt("upsert"), "ON DUPLICATE KEY")
	assert.Contains(t, s.stmt("get"), "username = ?")
}
