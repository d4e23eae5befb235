package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/habits/internal/timex"
)

// parseEnv overlays Config with environment variables. Unset variables
// leave the current value untouched. Durations accept the "7d" day suffix.
// PORT is honoured as ":<PORT>" unless HTTP_ADDR is set.
func parseEnv(config *Config) error {
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return timex.ParseDuration(v)
			},
		},
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		if _, set := os.LookupEnv("HTTP_ADDR"); !set {
			config.HTTPAddr = ":" + port
		}
	}
	return nil
}
