package users

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Record is one login. Unidade, Endereco and Cirurgiao fill the clinic block of contracts.
type Record struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
	Unidade      string `json:"unidade"`
	Endereco     string `json:"endereco"`
	Cirurgiao    string `json:"cirurgiao_responsavel"`
}

func (r *Record) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// TargetFields lists scan destinations in the column order of the user queries.
func (r *Record) TargetFields() []any {
	return []any{&r.Username, &r.PasswordHash, &r.Role, &r.Unidade, &r.Endereco, &r.Cirurgiao}
}

var (
	ErrNotFound           = errors.New("users: user not found")
	ErrInvalidCredentials = errors.New("users: invalid username or password")
)

// InputError carries the message shown to the administrator.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("users: %s: %s", e.Field, e.Message)
}

// Store persists records keyed by username.
type Store interface {
	Get(ctx context.Context, username string) (*Record, error) // ErrNotFound when missing
	List(ctx context.Context) ([]*Record, error)               // ordered by username
	Put(ctx context.Context, rec *Record) error                // insert or replace
	Delete(ctx context.Context, username string) error         // ErrNotFound when missing
}
