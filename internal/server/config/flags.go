package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/habits/internal/flagx"
	"github.com/dmitrijs2005/habits/internal/timex"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":3000")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-t duration   token validity (e.g., "168h" or "7d")
//	-b int        bcrypt cost
//	-e string     stage: dev, test or production
//	-l string     log level
//
// Only these flags are parsed; anything else on the command line (such as
// -c for the JSON file) is filtered out first with flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-b", "-e", "-l"})

	fs := flag.NewFlagSet("habits", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.Func("t", "token validity duration", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		config.TokenValidityDuration = d
		return nil
	})
	fs.IntVar(&config.BcryptRounds, "b", config.BcryptRounds, "bcrypt cost")
	fs.StringVar(&config.Stage, "e", config.Stage, "stage (dev, test, production)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
