package conf

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/zeptools/gw-contracts/db"
	"github.com/zeptools/gw-contracts/db/kvdb"
	_ "github.com/zeptools/gw-contracts/db/kvdb/impls/memory" // registers "memory"
	_ "github.com/zeptools/gw-contracts/db/kvdb/impls/redis"  // registers "redis"
	"github.com/zeptools/gw-contracts/db/sqldb"
	_ "github.com/zeptools/gw-contracts/db/sqldb/impls/mysql" // registers "mysql"
	_ "github.com/zeptools/gw-contracts/db/sqldb/impls/pgsql" // registers "pgsql"
	"github.com/zeptools/gw-contracts/schedjobs"
	"github.com/zeptools/gw-contracts/sec"
	"github.com/zeptools/gw-contracts/svc"
	"github.com/zeptools/gw-contracts/throttle"
	"github.com/zeptools/gw-contracts/tpl"
	"github.com/zeptools/gw-contracts/uds"
	"github.com/zeptools/gw-contracts/users"
	"github.com/zeptools/gw-contracts/web"
	"github.com/zeptools/gw-contracts/web/session"
)

// Core - common config
// B = Throttle BucketID Type _ e.g. string, int64, etc
type Core[B comparable] struct {
	AppName             string                   `json:"app_name"`
	Listen              string                   `json:"listen"`   // HTTP Server Listen IP:PORT Address
	Host                string                   `json:"host"`     // HTTP Host. Can be used to generate public url endpoints
	UDSPath             string                   `json:"uds_path"` // control socket, relative to AppRoot unless absolute
	AppRoot             string                   `json:"-"`
	RootCtx             context.Context          `json:"-"` // Global Context with RootCancel
	RootCancel          context.CancelFunc       `json:"-"` // CancelFunc for RootCtx
	UDSService          *uds.Service             `json:"-"` // PrepareUDSService
	JobScheduler        *schedjobs.Scheduler     `json:"-"` // PrepareJobScheduler
	WebService          *web.Service             `json:"-"` // PrepareWebService
	ThrottleBucketStore *throttle.BucketStore[B] `json:"-"` // PrepareThrottleBucketStore
	ActionLocks         *sync.Map                `json:"-"` // map[string]struct{}
	KVDBConf            kvdb.Conf                `json:"-"` // loadKVDBConf
	BackendKVDBClient   kvdb.Client              `json:"-"` // PrepareKVDatabase
	SQLDBConfs          map[string]*sqldb.Conf   `json:"-"` // loadSQLDBConfs
	BackendSQLDBClients map[string]sqldb.Client  `json:"-"` // PrepareSQLDatabases
	WebSessionManager   *session.Manager         `json:"-"` // PrepareWebSessions
	HTMLTemplateStore   *tpl.HTMLTemplateStore   `json:"-"` // PrepareHTMLTemplateStore
	Contracts           ContractsConf            `json:"-"` // LoadContractsConf
	UserService         *users.Service           `json:"-"` // PrepareUserService

	services []svc.Service // Services to Manage
	done     chan error
}

func (c *Core[B]) configPath(name string) string {
	return filepath.Join(c.AppRoot, "config", name)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file
// 3. prepare base fields
func (c *Core[B]) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	if err := readJSONFile(c.configPath(".core.json"), c); err != nil {
		return err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.ActionLocks = &sync.Map{}
	return nil
}

// Validate checks the core settings after flag overrides.
func (c *Core[B]) Validate() error {
	if c.AppName == "" {
		return errors.New("app_name is required")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	return nil
}

func (c *Core[B]) AddService(s svc.Service) {
	c.services = append(c.services, s)
	log.Printf("[INFO][CORE] service added: %s (total %d)", s.Name(), len(c.services))
}

func (c *Core[B]) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		if err := s.Start(); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		log.Printf("[INFO][CORE] service started: %s", s.Name())
		go func() {
			c.done <- <-s.Done()
		}()
	}
	return nil
}

// WaitServicesDone blocks until every started service reports done.
// The first service to stop cancels the root context so the others follow.
func (c *Core[B]) WaitServicesDone() error {
	var firstErr error
	for range c.services {
		err := <-c.done
		c.RootCancel()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Core[B]) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

// StartShutdownSignalListener cancels RootCtx on SIGINT or SIGTERM.
func (c *Core[B]) StartShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

func (c *Core[B]) LoadContractsConf() error {
	if err := readJSONFile(c.configPath(".contracts.json"), &c.Contracts); err != nil {
		return err
	}
	return c.Contracts.Validate()
}

// PrepareJobScheduler registers the sweep of expired KV entries for backends that need it.
// Prerequisite: BackendKVDBClient
func (c *Core[B]) PrepareJobScheduler() {
	c.JobScheduler = schedjobs.NewScheduler(c.RootCtx)
	if sw, ok := c.BackendKVDBClient.(kvdb.Sweeper); ok {
		c.JobScheduler.AddCronJob(schedjobs.NewEveryNMinCronJob("kv-sweep", c.Contracts.SweepEvery(),
			func(context.Context) error {
				if n := sw.Sweep(time.Now()); n > 0 {
					log.Printf("[INFO][SCHED] kv sweep removed %d expired entries", n)
				}
				return nil
			}))
	}
	c.AddService(c.JobScheduler)
}

func (c *Core[B]) PrepareUDSService(cmdMap map[string]uds.CmdHnd) {
	sockPath := c.UDSPath
	if sockPath == "" {
		sockPath = filepath.Join("run", c.AppName+".sock")
	}
	if !filepath.IsAbs(sockPath) {
		sockPath = filepath.Join(c.AppRoot, sockPath)
	}
	c.UDSService = uds.NewService(c.RootCtx, sockPath, cmdMap)
	c.AddService(c.UDSService)
}

func (c *Core[B]) PrepareWebService(router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, c.Listen, router)
	c.AddService(c.WebService)
}

func (c *Core[B]) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) {
	c.ThrottleBucketStore = throttle.NewBucketStore[B](c.RootCtx, cleanupCycle, cleanupOlderThan)
	c.AddService(c.ThrottleBucketStore)
}

// PrepareKVDatabase loads .kv-databases.json. A missing file means the memory backend.
func (c *Core[B]) PrepareKVDatabase() error {
	err := readJSONFile(c.configPath(".kv-databases.json"), &c.KVDBConf)
	if errors.Is(err, fs.ErrNotExist) {
		c.KVDBConf = kvdb.Conf{Type: "memory"}
	} else if err != nil {
		return err
	}
	client, err := kvdb.New(&c.KVDBConf)
	if err != nil {
		return err
	}
	if err = client.Init(); err != nil {
		return err
	}
	c.BackendKVDBClient = client
	return nil
}

func (c *Core[B]) loadSQLDBConfs() error {
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	err := readJSONFile(c.configPath(".sql-databases.json"), &c.SQLDBConfs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil // no SQL databases configured
	}
	return err
}

// PrepareSQLDatabases - Build & Init SQL DB Clients
func (c *Core[B]) PrepareSQLDatabases() error {
	if err := c.loadSQLDBConfs(); err != nil {
		return err
	}
	c.BackendSQLDBClients = make(map[string]sqldb.Client)
	for dbName, sqlDBConf := range c.SQLDBConfs {
		dbClient, err := sqldb.New(sqlDBConf)
		if err != nil {
			return fmt.Errorf("sql db %q: %w", dbName, err)
		}
		if err = dbClient.Init(); err != nil {
			return fmt.Errorf("sql db %q: %w", dbName, err)
		}
		c.BackendSQLDBClients[dbName] = dbClient
	}
	return nil
}

// PrepareUserService picks the user store from ContractsConf and bootstraps the admin.
// Prerequisite: LoadContractsConf, PrepareSQLDatabases for the sql backend
func (c *Core[B]) PrepareUserService() error {
	var store users.Store
	switch c.Contracts.Users.Backend {
	case "sql":
		client, ok := c.BackendSQLDBClients[c.Contracts.Users.SQLDB]
		if !ok {
			return fmt.Errorf("users: sql db %q not configured", c.Contracts.Users.SQLDB)
		}
		sqlStore, err := users.NewSQLStore(client)
		if err != nil {
			return err
		}
		if err = sqlStore.Migrate(c.RootCtx); err != nil {
			return err
		}
		store = sqlStore
	default:
		path := c.Contracts.UsersFile(c.AppRoot)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		store = users.NewFileStore(path)
	}
	c.UserService = users.NewService(store)
	c.UserService.BcryptCost = c.Contracts.BcryptCost
	created, err := c.UserService.EnsureAdmin(c.RootCtx, c.Contracts.BootstrapAdmin)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Printf("[INFO][CORE] bootstrap admin %q created", c.Contracts.BootstrapAdmin.Username)
	}
	return nil
}

// PrepareWebSessions prepares WebSessionManager
// Prerequisite: BackendKVDBClient
func (c *Core[B]) PrepareWebSessions() error {
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	mgr := &session.Manager{
		AppName:           c.AppName,
		BackendKVDBClient: c.BackendKVDBClient,
	}
	if err := readJSONFile(c.configPath(".web-session.json"), &mgr.Conf); err != nil {
		return err
	}
	// Web Login Session Cipher
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64(mgr.Conf.EncryptionKey)
	if err != nil {
		return fmt.Errorf("NewXChaCha20Poly1305Cipher: %v", err)
	}
	mgr.Cipher = cipher
	c.WebSessionManager = mgr
	return nil
}

// PrepareHTMLTemplateStore loads and composes the page templates from fsys.
func (c *Core[B]) PrepareHTMLTemplateStore(fsys fs.FS, root string, funcs template.FuncMap) error {
	store := tpl.NewHTMLTemplateStore(funcs)
	if err := store.LoadBaseTemplates(fsys, root); err != nil {
		return err
	}
	if err := store.Compose("layout", "partials", "pages"); err != nil {
		return err
	}
	c.HTMLTemplateStore = store
	return nil
}

func (c *Core[B]) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	if c.BackendKVDBClient != nil {
		db.CloseClient("kv "+c.KVDBConf.Type, c.BackendKVDBClient)
	}
	for name, sqlDBClient := range c.BackendSQLDBClients {
		db.CloseClient(sqlDBClient.DBType()+" "+name, sqlDBClient)
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
