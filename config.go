package authvault

import (
	"errors"
	"regexp"
	"time"
)

// Config defines the tunable behavior of an [Engine]. Instances are intended
// to be configured before [Builder.Build] and treated as immutable afterwards.
type Config struct {
	Store    StoreConfig
	Security SecurityConfig
	Password PasswordConfig
	Persist  PersistConfig
	Guest    GuestConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig locates the auth file and the root under which per-user home
// directories are provisioned. AuthFilePath may point outside HomeRoot.
type StoreConfig struct {
	AuthFilePath string
	HomeRoot     string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the brute-force login cooldown. A zero or negative
// LoginCooldown disables cooldown tracking entirely.
type SecurityConfig struct {
	LoginCooldown time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the optional password-rules expression. When Rules
// is non-empty it must be a valid regular expression; every new password must
// match it.
type PasswordConfig struct {
	Rules string
}

/*
====================================
PERSIST CONFIG
====================================
*/

// PersistConfig controls the long-lived "remember me" credential: the cookie
// name handed to the transport layer and how long an issued credential stays
// valid.
type PersistConfig struct {
	CookieName string
	Validity   time.Duration
}

/*
====================================
GUEST CONFIG
====================================
*/

// GuestConfig names the synthetic not-yet-authenticated identity. Both values
// are reserved: CreateUser rejects them as a real username or role.
type GuestConfig struct {
	Username string
	Role     string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the in-process counters exposed through
// [Engine.MetricsSnapshot].
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			AuthFilePath: "auth.yml",
			HomeRoot:     ".",
		},
		Security: SecurityConfig{
			LoginCooldown: 0,
		},
		Persist: PersistConfig{
			CookieName: "_authvault_user",
			Validity:   90 * 24 * time.Hour,
		},
		Guest: GuestConfig{
			Username: "guest",
			Role:     "guest",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All sections are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate checks the configuration for internal consistency. Build calls it;
// callers constructing a Config by hand may call it early for better errors.
func (c Config) Validate() error {
	if c.Store.AuthFilePath == "" {
		return errors.New("Store.AuthFilePath is required")
	}
	if c.Store.HomeRoot == "" {
		return errors.New("Store.HomeRoot is required")
	}
	if c.Persist.CookieName == "" {
		return errors.New("Persist.CookieName is required")
	}
	if c.Persist.Validity <= 0 {
		return errors.New("Persist.Validity must be positive")
	}
	if c.Guest.Username == "" || c.Guest.Role == "" {
		return errors.New("Guest.Username and Guest.Role are required")
	}
	if c.Password.Rules != "" {
		if _, err := regexp.Compile(c.Password.Rules); err != nil {
			return errors.New("Password.Rules is not a valid regular expression")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when auditing is enabled")
	}
	return nil
}
