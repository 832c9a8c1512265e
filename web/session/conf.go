package session

import "time"

const DefaultCookieName = "contracts_session"

type Conf struct {
	EncryptionKey string `json:"enckey"` // base64 RawURL, 32 bytes

	ExpireSliding  int    `json:"expire_sliding"` // seconds of inactivity
	ExpireHardcap  int    `json:"expire_hardcap"` // seconds since login
	CookieName     string `json:"cookie_name"`
	InsecureCookie bool   `json:"insecure_cookie"` // plain-HTTP development only

	// For Web Login Sessions
	LoginPath string `json:"login_path"`
}

func (c *Conf) sliding() time.Duration {
	if c.ExpireSliding <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ExpireSliding) * time.Second
}

func (c *Conf) hardcap() time.Duration {
	if c.ExpireHardcap <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.ExpireHardcap) * time.Second
}

func (c *Conf) cookieName() string {
	if c.CookieName == "" {
		return DefaultCookieName
	}
	return c.CookieName
}

// LoginPathOr is LoginPath, "/login" when unset.
func (c *Conf) LoginPathOr() string {
	if c.LoginPath == "" {
		return "/login"
	}
	return c.LoginPath
}
