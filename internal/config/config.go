// Package config provides environment-driven configuration for the
// forumlift migration pipeline.
package config

import (
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Content and identity limits applied during transform. These match the
// target platform's column constraints.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
	BioMaxLen      = 500
	TitleMaxLen    = 200
	SlugMaxLen     = 50
)

// Config holds all pipeline configuration values.
type Config struct {
	// Legacy (source) MySQL connection.
	LegacyHost     string
	LegacyPort     string
	LegacyUser     string
	LegacyPassword Secret
	LegacyDatabase string
	LegacyTLS      string

	// Target Postgres + identity provider.
	DatabaseURL    Secret
	IdentityURL    string
	ServiceRoleKey Secret

	// PasswordSeed salts the deterministic placeholder passwords assigned
	// to migrated identities. Operators force a reset after cutover.
	PasswordSeed Secret

	WorkDir      string
	BatchSize    int
	ArchiveName  string
	LogLevel     string
	DryRun       bool
	VerifySample int
}

// Load reads configuration from environment variables with sensible
// defaults. An optional YAML config file fills in values no environment
// variable provides.
func Load() (*Config, error) {
	file := loadFile()
	get := func(key, def string) string { return resolve(file, key, def) }

	cfg := &Config{
		LegacyHost:     get("LEGACY_DB_HOST", "127.0.0.1"),
		LegacyPort:     get("LEGACY_DB_PORT", "3306"),
		LegacyUser:     get("LEGACY_DB_USER", ""),
		LegacyPassword: Secret(get("LEGACY_DB_PASSWORD", "")),
		LegacyDatabase: get("LEGACY_DB_NAME", ""),
		LegacyTLS:      get("LEGACY_DB_TLS", ""),
		DatabaseURL:    Secret(get("DATABASE_URL", "")),
		IdentityURL:    get("IDENTITY_URL", ""),
		ServiceRoleKey: Secret(get("SERVICE_ROLE_KEY", "")),
		PasswordSeed:   Secret(get("PASSWORD_SEED", "")),
		WorkDir:        get("WORK_DIR", "migration-data"),
		ArchiveName:    get("ARCHIVE_CATEGORY_NAME", "Stories of Old"),
		LogLevel:       get("LOG_LEVEL", "info"),
		DryRun:         get("DRY_RUN", "") == "true" || get("DRY_RUN", "") == "1",
	}

	batch, err := strconv.Atoi(get("BATCH_SIZE", "50"))
	if err != nil || batch < 1 || batch > 1000 {
		return nil, fmt.Errorf("BATCH_SIZE must be an integer between 1 and 1000")
	}
	cfg.BatchSize = batch

	sample, err := strconv.Atoi(get("VERIFY_SAMPLE", "25"))
	if err != nil || sample < 1 {
		return nil, fmt.Errorf("VERIFY_SAMPLE must be a positive integer")
	}
	cfg.VerifySample = sample

	return cfg, nil
}

// LegacyDSN builds a go-sql-driver DSN for the legacy MySQL store.
func (c *Config) LegacyDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.LegacyUser
	mc.Passwd = c.LegacyPassword.Value()
	mc.Net = "tcp"
	mc.Addr = c.LegacyHost + ":" + c.LegacyPort
	mc.DBName = c.LegacyDatabase
	mc.ParseTime = true
	if c.LegacyTLS != "" {
		mc.TLSConfig = c.LegacyTLS
	}
	return mc.FormatDSN()
}

// MappingPath returns the location of the persisted ID mapping store.
func (c *Config) MappingPath() string {
	return c.WorkDir + "/id-map.json"
}
