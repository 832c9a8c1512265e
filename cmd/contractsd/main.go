// Command contractsd serves the contract generator web app.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/zeptools/gw-contracts/artifacts"
	"github.com/zeptools/gw-contracts/conf"
	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/extract"
	"github.com/zeptools/gw-contracts/pdfs"
	"github.com/zeptools/gw-contracts/sec"
	"github.com/zeptools/gw-contracts/webapp"
)

func main() {
	opts, err := loadOptions(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	core := &conf.Core[string]{}
	if err = run(core, opts, rootCtx, rootCancel); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Printf("[INFO] app [%s] stopped", core.AppName)
}

func run(core *conf.Core[string], opts *options, rootCtx context.Context, rootCancel context.CancelFunc) error {
	if err := core.BaseInit(opts.AppRoot, rootCtx, rootCancel); err != nil {
		return fmt.Errorf("core config: %w", err)
	}
	opts.apply(core)
	if err := core.Validate(); err != nil {
		return err
	}
	if err := core.LoadContractsConf(); err != nil {
		return fmt.Errorf("contracts config: %w", err)
	}
	cc := &core.Contracts

	if err := core.PrepareKVDatabase(); err != nil {
		return fmt.Errorf("kv database: %w", err)
	}
	defer core.ResourceCleanUp()
	if err := core.PrepareSQLDatabases(); err != nil {
		return fmt.Errorf("sql databases: %w", err)
	}
	if err := core.PrepareUserService(); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if err := core.PrepareWebSessions(); err != nil {
		return fmt.Errorf("web sessions: %w", err)
	}
	if err := core.PrepareHTMLTemplateStore(webapp.Templates, webapp.TemplateRoot, webapp.FuncMap()); err != nil {
		return fmt.Errorf("html templates: %w", err)
	}
	catalog, err := contracts.Load()
	if err != nil {
		return err
	}
	log.Printf("[INFO][CONTRACTS] %d contract templates loaded", catalog.Len())

	core.PrepareThrottleBucketStore(time.Minute, 30*time.Minute)
	app := &webapp.App{
		Users:     core.UserService,
		Sessions:  core.WebSessionManager,
		Templates: core.HTMLTemplateStore,
		Catalog:   catalog,
		Extractor: &extract.Extractor{Placeholder: cc.Placeholder, MaxUpload: cc.MaxUpload()},
		Renderer:  &pdfs.Renderer{Geometry: cc.Geometry(), FooterFormat: cc.FooterFormatOr()},
		Artifacts: artifacts.NewStore(core.BackendKVDBClient, core.AppName, cc.ArtifactTTL()),
		Tickets: &sec.TicketIssuer{
			Secret: []byte(cc.TicketSecret),
			Issuer: core.AppName,
			TTL:    cc.TicketTTL(),
		},
		Throttle:    core.ThrottleBucketStore,
		RenderLocks: &sync.Map{},
		Clinic:      cc.Clinic(),
		LogoWidth:   cc.LogoWidth,
		LogoHeight:  cc.LogoHeight,
		MaxUpload:   cc.MaxUpload(),
		TrustProxy:  cc.TrustProxy,
	}
	if app.DefaultLogo, err = loadDefaultLogo(cc.LogoPath(core.AppRoot), cc.LogoWidth, cc.LogoHeight); err != nil {
		return err
	}
	lt := cc.LoginBucket()
	app.LoginThrottle(lt.Burst, lt.PerMinute)

	core.PrepareJobScheduler()
	core.PrepareUDSService(app.Commands())
	core.PrepareWebService(app.Handler())

	core.StartShutdownSignalListener()
	if err = core.StartServices(); err != nil {
		core.RootCancel()
		return err
	}
	log.Printf("[INFO] app [%s] running on %s", core.AppName, core.WebService.Addr())
	return core.WaitServicesDone()
}

// loadDefaultLogo reads the configured logo once so every render reuses the bytes.
func loadDefaultLogo(path string, width, height float64) (*pdfs.LogoSpec, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("default logo: %w", err)
	}
	if _, _, _, err = pdfs.DecodeLogoConfig(data); err != nil {
		return nil, fmt.Errorf("default logo %s: %w", path, err)
	}
	return &pdfs.LogoSpec{Data: data, Width: width, Height: height}, nil
}
