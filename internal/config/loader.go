package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the lab
// reservation service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionTTL    time.Duration
	LogLevel      string
	AdminUserName string
	AdminEmail    string
	AdminPassword string
}

// Load parses configuration values from the current process environment.
//
// Optional fields receive defaults; the admin seed password is required
// so the service never boots with a well-known credential.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:labreserve.db?_foreign_keys=on",
		SessionTTL:    24 * time.Hour,
		LogLevel:      "info",
		AdminUserName: "admin",
		AdminEmail:    "admin@university.com",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("LABRESERVE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "LABRESERVE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("LABRESERVE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("LABRESERVE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "LABRESERVE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if level := strings.TrimSpace(os.Getenv("LABRESERVE_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if name := strings.TrimSpace(os.Getenv("LABRESERVE_ADMIN_USER")); name != "" {
		cfg.AdminUserName = name
	}
	if email := strings.TrimSpace(os.Getenv("LABRESERVE_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = email
	}

	if password := strings.TrimSpace(os.Getenv("LABRESERVE_ADMIN_PASSWORD")); password == "" {
		missing = append(missing, "LABRESERVE_ADMIN_PASSWORD")
	} else {
		cfg.AdminPassword = password
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
