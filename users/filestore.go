package users

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// FileStore keeps all records in one JSON object keyed by username.
// Writes go to a temp file that is renamed over the original.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

type fileRecord struct {
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
	Unidade      string `json:"unidade"`
	Endereco     string `json:"endereco"`
	Cirurgiao    string `json:"cirurgiao_responsavel"`
}

func (s *FileStore) load() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("users: read %s: %w", s.Path, err)
	}
	recs := map[string]fileRecord{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return recs, nil
	}
	if err = json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("users: decode %s: %w", s.Path, err)
	}
	return recs, nil
}

func (s *FileStore) save(recs map[string]fileRecord) error {
	data, err := json.Marshal(recs, json.Deterministic(true), jsontext.WithIndent("    "))
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("users: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()
	if _, err = tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path)
}

func toRecord(username string, fr fileRecord) *Record {
	return &Record{
		Username:     username,
		PasswordHash: fr.PasswordHash,
		Role:         fr.Role,
		Unidade:      fr.Unidade,
		Endereco:     fr.Endereco,
		Cirurgiao:    fr.Cirurgiao,
	}
}

func (s *FileStore) Get(_ context.Context, username string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	fr, ok := recs[username]
	if !ok {
		return nil, ErrNotFound
	}
	return toRecord(username, fr), nil
}

func (s *FileStore) List(_ context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(recs))
	for name := range recs {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Record, len(names))
	for i, name := range names {
		out[i] = toRecord(name, recs[name])
	}
	return out, nil
}

func (s *FileStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return err
	}
	recs[rec.Username] = fileRecord{
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
		Unidade:      rec.Unidade,
		Endereco:     rec.Endereco,
		Cirurgiao:    rec.Cirurgiao,
	}
	return s.save(recs)
}

func (s *FileStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := recs[username]; !ok {
		return ErrNotFound
	}
	delete(recs, username)
	return s.save(recs)
}
