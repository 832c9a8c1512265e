package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeptools/gw-contracts/db/kvdb"
)

const DefaultTTL = 30 * time.Minute

var ErrNotFound = errors.New("artifacts: not found or expired")

// Artifact is a rendered PDF owned by one user.
type Artifact struct {
	ID       string
	Owner    string
	FileName string
	Pages    int
	Data     []byte
}

// Store keeps artifacts in the KV database: the bytes under one key and
// the metadata in a hash, both with the same TTL.
type Store struct {
	KV     kvdb.Client
	Prefix string // key namespace, usually the app name
	TTL    time.Duration
}

func NewStore(kv kvdb.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{KV: kv, Prefix: prefix, TTL: ttl}
}

func (s *Store) dataKey(id string) string {
	return s.Prefix + "_artifact:" + id
}

func (s *Store) metaKey(id string) string {
	return s.Prefix + "_artifact_meta:" + id
}

// Put stores a new artifact and returns its id.
func (s *Store) Put(ctx context.Context, owner, fileName string, pages int, data []byte) (string, error) {
	id := uuid.NewString()
	if err := s.KV.Set(ctx, s.dataKey(id), data, s.TTL); err != nil {
		return "", fmt.Errorf("artifacts: store data: %w", err)
	}
	err := s.KV.SetFields(ctx, s.metaKey(id), map[string]string{
		"owner": owner,
		"file":  fileName,
		"pages": strconv.Itoa(pages),
	})
	if err == nil {
		_, err = s.KV.Expire(ctx, s.metaKey(id), s.TTL)
	}
	if err != nil {
		_, _ = s.KV.Delete(ctx, s.dataKey(id), s.metaKey(id))
		return "", fmt.Errorf("artifacts: store meta: %w", err)
	}
	return id, nil
}

// Get returns ErrNotFound for unknown or expired ids and for ids that are not uuids.
func (s *Store) Get(ctx context.Context, id string) (*Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	meta, err := s.KV.GetAllFields(ctx, s.metaKey(id))
	if err != nil {
		return nil, fmt.Errorf("artifacts: read meta: %w", err)
	}
	if len(meta) == 0 {
		return nil, ErrNotFound
	}
	data, found, err := s.KV.Get(ctx, s.dataKey(id))
	if err != nil {
		return nil, fmt.Errorf("artifacts: read data: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	pages, _ := strconv.Atoi(meta["pages"])
	return &Artifact{
		ID:       id,
		Owner:    meta["owner"],
		FileName: meta["file"],
		Pages:    pages,
		Data:     data,
	}, nil
}

// GetOwned is Get restricted to artifacts of owner; others read as ErrNotFound.
func (s *Store) GetOwned(ctx context.Context, id, owner string) (*Artifact, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Owner != owner {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		keys = append(keys, s.dataKey(id), s.metaKey(id))
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := s.KV.Delete(ctx, keys...)
	return err
}

// Count reports how many artifacts are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	return kvdb.CountKeys(ctx, s.KV, s.Prefix+"_artifact_meta:*")
}
