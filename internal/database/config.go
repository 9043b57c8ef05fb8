package database

import (
	"fmt"
	"net/url"
	"strings"
)

// sqlitePragmas are appended to every SQLite DSN. Concurrent login callbacks race on
// the same state row, so writers wait for the lock instead of failing with SQLITE_BUSY.
var sqlitePragmas = url.Values{
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	// Driver is postgres or sqlite; empty means sqlite
	Driver string

	// URL takes precedence over the discrete PostgreSQL fields when set
	URL string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// Path is the SQLite file, or a file: URI
	Path string
}

// String returns a string representation with sensitive data masked
func (c *DatabaseConfig) String() string {
	dbURL := "[unset]"
	if c.URL != "" {
		dbURL = "[REDACTED]"
	}
	return fmt.Sprintf("DatabaseConfig{Driver: %s, URL: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, dbURL, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds the driver specific connection string. Unknown drivers yield "".
func (c *DatabaseConfig) DSN() string {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		if c.URL != "" {
			return c.URL
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		return sqliteDSN(c.Path)
	default:
		return ""
	}
}

// sqliteDSN adds the shared pragmas to path unless it already sets them
func sqliteDSN(path string) string {
	base, rawQuery, _ := strings.Cut(path, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path
	}
	for key, value := range sqlitePragmas {
		if query.Get(key) == "" {
			query[key] = value
		}
	}
	return base + "?" + query.Encode()
}
