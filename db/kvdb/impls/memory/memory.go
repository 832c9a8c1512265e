package memory

import (
	"context"
	"log"
	"maps"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/zeptools/gw-contracts/db/kvdb"
)

const DBType = "memory"

func init() {
	kvdb.RegisterFactory(DBType, func(conf *kvdb.Conf) (kvdb.Client, error) {
		return New(conf), nil
	})
}

type entry struct {
	value   []byte
	hash    map[string]string // nil for single-value keys
	expires time.Time         // zero = never
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Client is an in-process store for single-node deployments and tests.
// Expired entries are invisible immediately and removed by Sweep.
type Client struct {
	conf *kvdb.Conf
	Now  func() time.Time

	mu   sync.Mutex
	data map[string]*entry
}

var (
	_ kvdb.Client  = (*Client)(nil)
	_ kvdb.Sweeper = (*Client)(nil)
)

func New(conf *kvdb.Conf) *Client {
	return &Client{conf: conf, Now: time.Now, data: make(map[string]*entry)}
}

func (c *Client) Init() error {
	log.Println("[INFO][KVDB] memory store initialized")
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return nil
}

func (c *Client) Conf() *kvdb.Conf {
	return c.conf
}

// live returns the entry for key or nil, dropping it when expired. Caller holds mu.
func (c *Client) live(key string, now time.Time) *entry {
	e, ok := c.data[key]
	if !ok {
		return nil
	}
	if e.expired(now) {
		delete(c.data, key)
		return nil
	}
	return e
}

func expiry(now time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return now.Add(d)
}

//--- Key Ops ----

func (c *Client) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live(key, c.Now()) != nil, nil
}

func (c *Client) Delete(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.Now()
	var n int64
	for _, k := range keys {
		if c.live(k, now) != nil {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *Client) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.Now()
	e := c.live(key, now)
	if e == nil {
		return false, nil
	}
	if expiration <= 0 {
		delete(c.data, key)
		return true, nil
	}
	e.expires = now.Add(expiration)
	return true, nil
}

// ScanKeys walks a sorted snapshot of the live keys; the cursor is an offset.
func (c *Client) ScanKeys(_ context.Context, cursor any, match string, scanBatchSize int) ([]string, any, error) {
	if match == "" {
		match = "*"
	}
	if scanBatchSize <= 0 {
		scanBatchSize = 10
	}
	offset := 0
	if cursor != nil {
		offset = cursor.(int)
	}
	c.mu.Lock()
	now := c.Now()
	var keys []string
	for k, e := range c.data {
		if e.expired(now) {
			continue
		}
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	c.mu.Unlock()
	slices.Sort(keys)

	if offset >= len(keys) {
		return nil, nil, nil
	}
	end := min(offset+scanBatchSize, len(keys))
	if end == len(keys) {
		return keys[offset:end], nil, nil
	}
	return keys[offset:end], end, nil
}

//---- Single-value Ops ----

func (c *Client) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.Now()
	c.data[key] = &entry{value: slices.Clone(value), expires: expiry(now, expiration)}
	return nil
}

func (c *Client) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.live(key, c.Now())
	if e == nil {
		return nil, false, nil
	}
	if e.hash != nil {
		return nil, false, &kvdb.WrongTypeError{Key: key}
	}
	return slices.Clone(e.value), true, nil
}

//---- Hash Ops ----

// SetFields merges fields into the hash, keeping the key's expiration.
func (c *Client) SetFields(_ context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.live(key, c.Now())
	if e == nil {
		e = &entry{hash: make(map[string]string, len(fields))}
		c.data[key] = e
	} else if e.hash == nil {
		return &kvdb.WrongTypeError{Key: key}
	}
	maps.Copy(e.hash, fields)
	return nil
}

func (c *Client) GetField(_ context.Context, key string, field string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.live(key, c.Now())
	if e == nil {
		return "", false, nil
	}
	if e.hash == nil {
		return "", false, &kvdb.WrongTypeError{Key: key}
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

// GetAllFields returns an empty map when the key is missing.
func (c *Client) GetAllFields(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.live(key, c.Now())
	if e == nil {
		return map[string]string{}, nil
	}
	if e.hash == nil {
		return nil, &kvdb.WrongTypeError{Key: key}
	}
	return maps.Clone(e.hash), nil
}

// Sweep removes expired entries and reports how many were dropped.
func (c *Client) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.data {
		if e.expired(now) {
			delete(c.data, k)
			n++
		}
	}
	return n
}

func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
