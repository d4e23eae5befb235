package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/habits/internal/flagx"
	"github.com/dmitrijs2005/habits/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Only keys
// present in the file override the current values.
//
// Durations accept strings such as "15m" or "7d", or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	DBMaxOpenConns        *int            `json:"db_max_open_conns"`
	RunMigrations         *bool           `json:"run_migrations"`
	SecretKey             *string         `json:"secret_key"`
	TokenIssuer           *string         `json:"token_issuer"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BcryptRounds          *int            `json:"bcrypt_rounds"`
	Stage                 *string         `json:"stage"`
	LogLevel              *string         `json:"log_level"`
	LogFormat             *string         `json:"log_format"`
	LogFile               *string         `json:"log_file"`
	LoginRatePerSecond    *float64        `json:"login_rate_per_second"`
	LoginRateBurst        *int            `json:"login_rate_burst"`
	ReadHeaderTimeout     *timex.Duration `json:"read_header_timeout"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config in args, if any, into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.DBMaxOpenConns, c.DBMaxOpenConns)
	setIf(&config.RunMigrations, c.RunMigrations)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.TokenIssuer, c.TokenIssuer)
	setIf(&config.BcryptRounds, c.BcryptRounds)
	setIf(&config.Stage, c.Stage)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogFormat, c.LogFormat)
	setIf(&config.LogFile, c.LogFile)
	setIf(&config.LoginRatePerSecond, c.LoginRatePerSecond)
	setIf(&config.LoginRateBurst, c.LoginRateBurst)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ReadHeaderTimeout != nil {
		config.ReadHeaderTimeout = c.ReadHeaderTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
