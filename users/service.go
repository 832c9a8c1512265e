package users

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/zeptools/gw-contracts/sec"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Service struct {
	Store      Store
	BcryptCost int // 0 = bcrypt.DefaultCost

	dummyOnce sync.Once
	dummyHash string // compared against for unknown users
}

func NewService(store Store) *Service {
	return &Service{Store: store}
}

// NewUser is the admin form input.
type NewUser struct {
	Username  string
	Password  string
	Confirm   string
	Role      Role
	Unidade   string
	Endereco  string
	Cirurgiao string
}

// validate applies the admin form rules in order and stops at the first violation.
func (s *Service) validate(ctx context.Context, nu NewUser) error {
	switch {
	case strings.TrimSpace(nu.Username) == "":
		return &InputError{Field: "username", Message: "O nome do usuário não pode estar vazio."}
	case strings.ContainsAny(nu.Username, " \t"):
		return &InputError{Field: "username", Message: "O nome do usuário não pode conter espaços."}
	case !usernamePattern.MatchString(nu.Username):
		return &InputError{Field: "username", Message: "O nome do usuário pode conter apenas letras, números, hífens e underscores."}
	}
	_, err := s.Store.Get(ctx, nu.Username)
	switch {
	case err == nil:
		return &InputError{Field: "username", Message: "Usuário já existe!"}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	switch {
	case strings.TrimSpace(nu.Password) == "":
		return &InputError{Field: "password", Message: "A senha não pode estar vazia."}
	case nu.Password != nu.Confirm:
		return &InputError{Field: "confirm", Message: "As senhas não coincidem. Por favor, tente novamente."}
	case !nu.Role.Valid():
		return &InputError{Field: "role", Message: "Função inválida."}
	case strings.TrimSpace(nu.Unidade) == "":
		return &InputError{Field: "unidade", Message: "A unidade não pode estar vazia."}
	case strings.TrimSpace(nu.Endereco) == "":
		return &InputError{Field: "endereco", Message: "O endereço não pode estar vazio."}
	case strings.TrimSpace(nu.Cirurgiao) == "":
		return &InputError{Field: "cirurgiao", Message: "O cirurgião dentista responsável não pode estar vazio."}
	}
	return nil
}

func (s *Service) Add(ctx context.Context, nu NewUser) error {
	if err := s.validate(ctx, nu); err != nil {
		return err
	}
	hash, err := sec.HashPassword(nu.Password, s.BcryptCost)
	if err != nil {
		return err
	}
	rec := &Record{
		Username:     nu.Username,
		PasswordHash: hash,
		Role:         nu.Role,
		Unidade:      strings.TrimSpace(nu.Unidade),
		Endereco:     strings.TrimSpace(nu.Endereco),
		Cirurgiao:    strings.TrimSpace(nu.Cirurgiao),
	}
	if err = s.Store.Put(ctx, rec); err != nil {
		return err
	}
	log.Printf("[INFO][USERS] user %q added (role=%s)", rec.Username, rec.Role)
	return nil
}

// Authenticate returns ErrInvalidCredentials for an unknown user or a wrong password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Record, error) {
	rec, err := s.Store.Get(ctx, username)
	if errors.Is(err, ErrNotFound) {
		_ = sec.CheckPassword(s.dummy(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err = sec.CheckPassword(rec.PasswordHash, password); err != nil {
		if errors.Is(err, sec.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		pw, _ := sec.GenerateOpaqueToken(16)
		s.dummyHash, _ = sec.HashPassword(pw, s.BcryptCost)
	})
	return s.dummyHash
}

// Remove deletes a user. Administrators cannot remove their own login.
func (s *Service) Remove(ctx context.Context, username, actor string) error {
	if username == actor {
		return &InputError{Field: "username", Message: "Você não pode remover o próprio usuário."}
	}
	if err := s.Store.Delete(ctx, username); err != nil {
		return err
	}
	log.Printf("[INFO][USERS] user %q removed by %q", username, actor)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.Store.List(ctx)
}

func (s *Service) Get(ctx context.Context, username string) (*Record, error) {
	return s.Store.Get(ctx, username)
}

// BootstrapAdmin is the administrator created when the store is empty.
type BootstrapAdmin struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Unidade   string `json:"unidade"`
	Endereco  string `json:"endereco"`
	Cirurgiao string `json:"cirurgiao_responsavel"`
}

// EnsureAdmin creates the bootstrap administrator when no user exists yet.
// It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, b BootstrapAdmin) (bool, error) {
	recs, err := s.Store.List(ctx)
	if err != nil {
		return false, err
	}
	if len(recs) > 0 {
		return false, nil
	}
	if b.Username == "" || b.Password == "" {
		log.Printf("[WARN][USERS] user store is empty and no bootstrap admin is configured")
		return false, nil
	}
	err = s.Add(ctx, NewUser{
		Username:  b.Username,
		Password:  b.Password,
		Confirm:   b.Password,
		Role:      RoleAdmin,
		Unidade:   b.Unidade,
		Endereco:  b.Endereco,
		Cirurgiao: b.Cirurgiao,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
