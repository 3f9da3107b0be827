package backend

import (
	"errors"
	"time"

	"ledger/internal/config"
	gsheet "ledger/internal/sheets/google"
)

// Config holds what the backend needs from the application config.
type Config struct {
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SessionSecret string
	SessionTTL    time.Duration
	BcryptCost    int

	CacheSize int
	CacheTTL  time.Duration

	Sheets gsheet.Config
}

const tokenIssuer = "ledger"

func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	return Config{
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		AMQPURL:       appConfig.AMQPURL,
		AMQPExchange:  appConfig.AMQPExchange,
		AMQPQueue:     appConfig.AMQPQueue,
		SessionSecret: appConfig.SessionSecret,
		SessionTTL:    appConfig.SessionTTL,
		BcryptCost:    appConfig.BcryptCost,
		CacheSize:     appConfig.CacheSize,
		CacheTTL:      appConfig.CacheTTL,
		Sheets: gsheet.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			SheetName:          appConfig.GoogleSheetName,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if c.CacheSize < 1 || c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache size and ttl must be positive"))
	}
	return errors.Join(errs...)
}
