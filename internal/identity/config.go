package identity

import (
	"fmt"
	"os"
)

// Verification modes.
const (
	ModeHMAC = "hmac"
	ModeOIDC = "oidc"
)

// Config holds credential verification settings. Secret and SubjectClaim apply
// to the hmac mode; Issuer and Audience apply to the oidc mode.
type Config struct {
	Mode         string `toml:"mode"`
	Cookie       string `toml:"cookie"`
	Secret       string `toml:"secret"`
	SubjectClaim string `toml:"subject_claim"`
	Issuer       string `toml:"issuer"`
	Audience     string `toml:"audience"`
	Anonymous    string `toml:"anonymous"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode         string
	Cookie       string
	Secret       string
	SubjectClaim string
	Issuer       string
	Audience     string
	Anonymous    string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Cookie != "" {
		c.Cookie = overlay.Cookie
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.SubjectClaim != "" {
		c.SubjectClaim = overlay.SubjectClaim
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.Anonymous != "" {
		c.Anonymous = overlay.Anonymous
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeHMAC
	}
	if c.Cookie == "" {
		c.Cookie = "token"
	}
	if c.SubjectClaim == "" {
		c.SubjectClaim = "userId"
	}
	if c.Anonymous == "" {
		c.Anonymous = "guest_user"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Mode != "" {
		if v := os.Getenv(env.Mode); v != "" {
			c.Mode = v
		}
	}
	if env.Cookie != "" {
		if v := os.Getenv(env.Cookie); v != "" {
			c.Cookie = v
		}
	}
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.SubjectClaim != "" {
		if v := os.Getenv(env.SubjectClaim); v != "" {
			c.SubjectClaim = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
	if env.Anonymous != "" {
		if v := os.Getenv(env.Anonymous); v != "" {
			c.Anonymous = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeHMAC:
		if c.Secret == "" {
			return fmt.Errorf("secret required for hmac mode")
		}
	case ModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required for oidc mode")
		}
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}
	return nil
}
