package kvdb

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Client interface {
	Init() error
	Close() error
	Conf() *Conf

	//---- Key Ops ----

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Expire sets/updates expiration for a key
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) // found & updated, err

	// ScanKeys iterates over keys matching the glob pattern in batches.
	// The cursor type and meaning are backend-specific and opaque to callers.
	// When nextCursor is nil, the scan is complete.
	ScanKeys(ctx context.Context, cursor any, match string, scanBatchSize int) ([]string, any, error)

	//---- Single-value Ops ----

	// Set with expiration 0 keeps the key until deleted.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error) // val, found, err

	//---- Hash Ops ----

	SetFields(ctx context.Context, key string, fields map[string]string) error
	GetField(ctx context.Context, key string, field string) (string, bool, error) // val, found, err
	GetAllFields(ctx context.Context, key string) (map[string]string, error)
}

// Sweeper is implemented by backends that need expired entries purged by a job.
type Sweeper interface {
	Sweep(now time.Time) int
}

var ErrNotSupported = errors.New("kvdb: operation not supported")

// WrongTypeError is returned for a single-value op on a hash key or the reverse.
type WrongTypeError struct {
	Key string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("kvdb: wrong value type for key %q", e.Key)
}

// CountKeys scans the whole keyspace matching pattern.
func CountKeys(ctx context.Context, c Client, match string) (int, error) {
	var cursor any
	n := 0
	for {
		keys, next, err := c.ScanKeys(ctx, cursor, match, 256)
		if err != nil {
			return n, err
		}
		n += len(keys)
		if next == nil {
			return n, nil
		}
		cursor = next
	}
}
