package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
	"github.com/zeptools/gw-contracts/db/kvdb"
)

const DBType = "redis"

func init() {
	kvdb.RegisterFactory(DBType, func(conf *kvdb.Conf) (kvdb.Client, error) {
		return &Client{conf: conf}, nil
	})
}

type Client struct {
	conf *kvdb.Conf

	// implementation details, not exported
	internal *lowimpl.Client
}

// Ensure redis.Client implements kvdb.Client interface
var _ kvdb.Client = (*Client)(nil)

func (c *Client) Init() error {
	c.internal = lowimpl.NewClient(&lowimpl.Options{
		Addr:     fmt.Sprintf("%s:%d", c.conf.Host, c.conf.Port),
		Password: c.conf.PW,
		DB:       c.conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.internal.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	log.Println("[INFO][KVDB] redis client initialized")
	return nil
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

func (c *Client) Conf() *kvdb.Conf {
	return c.conf
}

func wrapErr(key string, err error) error {
	if err != nil && strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return &kvdb.WrongTypeError{Key: key}
	}
	return err
}

//--- Key Ops ----

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.internal.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	return c.internal.Del(ctx, keys...).Result()
}

func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	// Redis EXPIRE returns true if key existed and TTL was set, false if key does not exist
	return c.internal.Expire(ctx, key, expiration).Result()
}

func (c *Client) ScanKeys(ctx context.Context, cursor any, match string, scanBatchSize int) ([]string, any, error) {
	var cur uint64
	if cursor != nil {
		cur = cursor.(uint64)
	}
	if match == "" {
		match = "*"
	}
	keys, nextCursor, err := c.internal.Scan(ctx, cur, match, int64(scanBatchSize)).Result()
	if err != nil {
		return nil, nil, err
	}
	// Redis returns nextCursor == 0 when the scan is complete.
	if nextCursor == 0 {
		return keys, nil, nil
	}
	return keys, nextCursor, nil
}

//---- Single-value Ops ----

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.internal.Get(ctx, key).Bytes()
	if errors.Is(err, lowimpl.Nil) {
		return nil, false, nil // redis.Nil -> ok: false, err: nil
	}
	if err != nil {
		return nil, false, wrapErr(key, err)
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.internal.Set(ctx, key, value, expiration).Err()
}

//---- Hash Ops ----

func (c *Client) SetFields(ctx context.Context, key string, fields map[string]string) error {
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return wrapErr(key, c.internal.HSet(ctx, key, values).Err())
}

func (c *Client) GetField(ctx context.Context, key string, field string) (string, bool, error) { // val, found, err
	val, err := c.internal.HGet(ctx, key, field).Result()
	if errors.Is(err, lowimpl.Nil) {
		return "", false, nil // key or field missing
	}
	if err != nil {
		return "", false, wrapErr(key, err)
	}
	return val, true, nil
}

// GetAllFields returns an empty map when the key is missing.
func (c *Client) GetAllFields(ctx context.Context, key string) (map[string]string, error) {
	m, err := c.internal.HGetAll(ctx, key).Result()
	return m, wrapErr(key, err)
}
