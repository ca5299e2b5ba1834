package config

import (
	"fmt"
	"net/url"
)

// ValidateSource checks the settings the Extractor needs.
func (c *Config) ValidateSource() error {
	if c.LegacyUser == "" {
		return fmt.Errorf("LEGACY_DB_USER is required")
	}

	if c.LegacyDatabase == "" {
		return fmt.Errorf("LEGACY_DB_NAME is required")
	}

	switch c.LegacyTLS {
	case "", "true", "false", "skip-verify", "preferred":
	default:
		return fmt.Errorf("LEGACY_DB_TLS must be one of true, false, skip-verify, preferred, got %q", c.LegacyTLS)
	}

	return nil
}

// ValidateTarget checks the settings the Loader, Recalculator, Verifier and
// Cleanup stages need.
func (c *Config) ValidateTarget() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	return nil
}

// RedactURL returns the URL with any password replaced, for logs and
// reports.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}

// ValidateIdentity checks the settings the identity admin client needs.
func (c *Config) ValidateIdentity() error {
	if c.IdentityURL == "" {
		return fmt.Errorf("IDENTITY_URL is required")
	}

	u, err := url.ParseRequestURI(c.IdentityURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("IDENTITY_URL is not a valid URL")
	}

	if c.ServiceRoleKey.Value() == "" {
		return fmt.Errorf("SERVICE_ROLE_KEY is required")
	}

	if c.PasswordSeed.Value() == "" {
		return fmt.Errorf("PASSWORD_SEED is required")
	}

	return nil
}
