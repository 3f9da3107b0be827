// Package config loads runtime settings from defaults, an optional
// ledger.yaml and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP; empty URL means audit events are written directly.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	SessionCookie string
	// SessionSecure marks the cookie Secure; enable behind TLS.
	SessionSecure bool
	BcryptCost    int

	RateLimitPerMinute int

	// Lookup cache
	CacheSize int
	CacheTTL  time.Duration

	LogLevel string

	// Google Sheets export target
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

var defaults = map[string]any{
	"port":                        "8081",
	"sqlite_db_path":              "./data/ledger.db",
	"amqp_url":                    "",
	"amqp_exchange":               "ledger",
	"amqp_queue":                  "ledger.audit",
	"session_secret":              "",
	"session_ttl":                 "12h",
	"session_cookie":              "ledger_session",
	"session_secure":              false,
	"bcrypt_cost":                 10,
	"rate_limit_per_minute":       60,
	"cache_size":                  256,
	"cache_ttl":                   "5m",
	"log_level":                   "info",
	"google_spreadsheet_id":       "",
	"google_sheet_name":           "Ledger",
	"google_service_account_json": "",
	"google_service_account_file": "",
}

// Load reads configuration. configFile may name a YAML file explicitly;
// when empty, ledger.yaml in the working directory is used if present.
// A .env file, when present, is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		Port:                     v.GetString("port"),
		SQLiteDBPath:             v.GetString("sqlite_db_path"),
		AMQPURL:                  v.GetString("amqp_url"),
		AMQPExchange:             v.GetString("amqp_exchange"),
		AMQPQueue:                v.GetString("amqp_queue"),
		SessionSecret:            v.GetString("session_secret"),
		SessionTTL:               v.GetDuration("session_ttl"),
		SessionCookie:            v.GetString("session_cookie"),
		SessionSecure:            v.GetBool("session_secure"),
		BcryptCost:               v.GetInt("bcrypt_cost"),
		RateLimitPerMinute:       v.GetInt("rate_limit_per_minute"),
		CacheSize:                v.GetInt("cache_size"),
		CacheTTL:                 v.GetDuration("cache_ttl"),
		LogLevel:                 v.GetString("log_level"),
		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),
	}, nil
}

// Validate checks the settings shared by every binary and reports all
// problems at once.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateServer adds the checks only the API server needs.
func (c *Config) ValidateServer() error {
	problems := c.problems()
	if len(c.SessionSecret) < 16 {
		problems = append(problems, "SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}
	if strings.TrimSpace(c.SessionCookie) == "" {
		problems = append(problems, "session cookie name cannot be empty")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid cache ttl %v: must be at least 1 second", c.CacheTTL))
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		problems = append(problems, "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE is required when GOOGLE_SPREADSHEET_ID is set")
	}
	return joinProblems(problems)
}

// ValidateWorker requires a broker, which the audit worker cannot run without.
func (c *Config) ValidateWorker() error {
	problems := c.problems()
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the worker")
	}
	return joinProblems(problems)
}

func (c *Config) problems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
}
