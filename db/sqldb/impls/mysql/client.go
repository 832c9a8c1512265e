package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql" // side-effect
	"github.com/zeptools/gw-contracts/db/sqldb"
)

const DBType = "mysql"

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

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	var err error
	if c.conf.DSN != "" {
		c.dsn = c.conf.DSN
	} else {
		c.dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s&sql_mode=ANSI_QUOTES",
			c.conf.User,
			c.conf.PW,
			c.conf.Host,
			c.conf.Port,
			c.conf.DB,
			c.conf.TZ,
		)
	}
	if c.DB, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	c.DB.SetConnMaxLifetime(3 * time.Minute)
	c.DB.SetMaxOpenConns(c.conf.MaxConnsOr(10))
	c.DB.SetMaxIdleConns(c.conf.MaxConnsOr(10))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	log.Println("[INFO][SQLDB] mysql client initialized")
	return nil
}

func (c *Client) Conf() *sqldb.Conf {
	return c.conf
}

func (c *Client) DSN() string {
	return c.dsn
}

func (c *Client) Ping(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("mysql client not initialized")
	}
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	log.Println("[INFO][SQLDB] closing mysql client")
	if err := c.DB.Close(); err != nil {
		return err
	}
	log.Println("[INFO][SQLDB] mysql client closed")
	return nil
}

func (c *Client) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("mysql client not initialized")
	}
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}
