// Command migrate applies or inspects the embedded database migrations.
//
// Usage:
//
//	migrate [-d dsn] up|up-by-one|down|redo|reset|status|version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/repositories/repomanager"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("d", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (defaults to $DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}
	if *dsn == "" {
		return fmt.Errorf("database DSN is required")
	}

	db, err := dbx.Open(ctx, *dsn, dbx.PoolOptions{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repomanager.Configure(); err != nil {
		return err
	}
	command := fs.Arg(0)
	if err := goose.RunContext(ctx, command, db, ".", fs.Args()[1:]...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
