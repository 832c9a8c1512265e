package conf

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/pdfs"
	"github.com/zeptools/gw-contracts/users"
)

// ContractsConf is config/.contracts.json.
type ContractsConf struct {
	ClinicName     string               `json:"clinic_name"`
	Forum          string               `json:"forum"`
	Placeholder    string               `json:"placeholder"`   // text for identity fields not found
	FooterFormat   string               `json:"footer_format"` // fmt format with page and total
	Paper          string               `json:"paper"`         // A4, Letter, Legal
	DefaultLogo    string               `json:"default_logo"`  // relative to the app root
	LogoWidth      float64              `json:"logo_width"`
	LogoHeight     float64              `json:"logo_height"`
	ArtifactTTLSec int                  `json:"artifact_ttl_sec"`
	TicketSecret   string               `json:"ticket_secret"`
	TicketTTLSec   int                  `json:"ticket_ttl_sec"`
	MaxUploadMB    int64                `json:"max_upload_mb"`
	TrustProxy     bool                 `json:"trust_proxy"` // client IP from X-Forwarded-For
	BcryptCost     int                  `json:"bcrypt_cost"`
	Users          UsersConf            `json:"users"`
	BootstrapAdmin users.BootstrapAdmin `json:"bootstrap_admin"`
	LoginThrottle  ThrottleConf         `json:"login_throttle"`
	SweepEveryMin  int                  `json:"sweep_every_min"`
}

type UsersConf struct {
	Backend string `json:"backend"` // "file" (default) or "sql"
	File    string `json:"file"`    // relative to the app root
	SQLDB   string `json:"sql_db"`  // key in .sql-databases.json
}

type ThrottleConf struct {
	Burst     int `json:"burst"`
	PerMinute int `json:"per_minute"`
}

func (c *ContractsConf) Validate() error {
	if len(c.TicketSecret) < 32 {
		return fmt.Errorf("ticket_secret must have at least 32 characters")
	}
	if _, ok := pdfs.PaperSizeByName(c.paper()); !ok {
		return fmt.Errorf("unknown paper size %q", c.Paper)
	}
	switch c.Users.Backend {
	case "", "file":
	case "sql":
		if c.Users.SQLDB == "" {
			return fmt.Errorf("users.sql_db is required for the sql backend")
		}
	default:
		return fmt.Errorf("unknown users backend %q", c.Users.Backend)
	}
	return nil
}

func (c *ContractsConf) paper() string {
	if c.Paper == "" {
		return "A4"
	}
	return c.Paper
}

func (c *ContractsConf) Geometry() pdfs.Geometry {
	g := pdfs.DefaultGeometry()
	if p, ok := pdfs.PaperSizeByName(c.paper()); ok {
		g.Paper = p
	}
	return g
}

func (c *ContractsConf) FooterFormatOr() string {
	if c.FooterFormat == "" {
		return pdfs.DefaultFooterFormat
	}
	return c.FooterFormat
}

func (c *ContractsConf) ArtifactTTL() time.Duration {
	if c.ArtifactTTLSec <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ArtifactTTLSec) * time.Second
}

func (c *ContractsConf) TicketTTL() time.Duration {
	if c.TicketTTLSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.TicketTTLSec) * time.Second
}

// MaxUpload is in bytes.
func (c *ContractsConf) MaxUpload() int64 {
	if c.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return c.MaxUploadMB << 20
}

func (c *ContractsConf) LoginBucket() ThrottleConf {
	t := c.LoginThrottle
	if t.Burst <= 0 {
		t.Burst = 5
	}
	if t.PerMinute <= 0 {
		t.PerMinute = 1
	}
	return t
}

func (c *ContractsConf) SweepEvery() int {
	if c.SweepEveryMin <= 0 {
		return 5
	}
	return c.SweepEveryMin
}

func (c *ContractsConf) Clinic() contracts.Clinic {
	return contracts.Clinic{Name: c.ClinicName, Forum: c.Forum}
}

// LogoPath resolves DefaultLogo against appRoot; "" when unset.
func (c *ContractsConf) LogoPath(appRoot string) string {
	if c.DefaultLogo == "" {
		return ""
	}
	if filepath.IsAbs(c.DefaultLogo) {
		return c.DefaultLogo
	}
	return filepath.Join(appRoot, c.DefaultLogo)
}

func (c *ContractsConf) UsersFile(appRoot string) string {
	f := c.Users.File
	if f == "" {
		f = filepath.Join("data", "users.json")
	}
	if filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(appRoot, f)
}
