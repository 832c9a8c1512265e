package pgsql

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeptools/gw-contracts/db/sqldb"
)

const DBType = "pgsql"

func init() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf) (sqldb.Client, error) {
		return &Client{conf: conf}, nil
	})
}

type Client struct {
	Handle // [Embedded] for Promoted Methods
	conf   *sqldb.Conf
	dsn    string
}

// Ensure pgsql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	if c.conf.DSN != "" {
		c.dsn = c.conf.DSN
	} else {
		// NOTE: sslmode=disable is often used for local dev, adjust as needed.
		c.dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			c.conf.Host,
			c.conf.Port,
			c.conf.User,
			c.conf.PW,
			c.conf.DB,
			c.conf.TZ,
		)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.open(ctx); err != nil {
		return err
	}
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	log.Print("[INFO][SQLDB] pgsql client initialized")
	return nil
}

func (c *Client) open(ctx context.Context) error {
	config, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = int32(c.conf.MaxConnsOr(10))
	config.MinConns = 1
	config.MaxConnLifetime = 3 * time.Minute
	c.Pool, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect pgx Pool: %w", err)
	}
	return nil
}

func (c *Client) Conf() *sqldb.Conf {
	return c.conf
}

func (c *Client) DSN() string {
	return c.dsn
}

func (c *Client) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return fmt.Errorf("pgsql client not initialized")
	}
	return c.Pool.Ping(ctx)
}

func (c *Client) Close() error {
	if c.Pool == nil {
		return nil
	}
	log.Println("[INFO][SQLDB] closing pgsql client")
	c.Pool.Close()
	log.Println("[INFO][SQLDB] pgsql client closed")
	return nil
}

func (c *Client) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	if c.Pool == nil {
		return nil, fmt.Errorf("pgsql client not initialized")
	}
	tx, err := c.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction failed: %w", err)
	}
	return &Tx{tx: tx}, nil
}
