// Command migrate applies or reverts the quote store schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	dbmigrations "github.com/coachpo/cryptoarb/db/migrations"
	"github.com/coachpo/cryptoarb/internal/infra/config"
	"github.com/coachpo/cryptoarb/internal/infra/persistence/migrations"
)

const defaultTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dsn        = flag.String("database", "", "PostgreSQL DSN; defaults to DBFile from the parameters file")
		configPath = flag.String("config", config.DefaultFileName, "Parameters file used when -database is empty")
		dir        = flag.String("path", "", "Directory containing SQL migrations; empty uses the embedded set")
		timeout    = flag.Duration("timeout", defaultTimeout, "Maximum time to wait for database connectivity")
		quiet      = flag.Bool("quiet", false, "Suppress informational logs")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		return errors.New("command required (up|down)")
	}

	target := strings.TrimSpace(*dsn)
	if target == "" {
		params, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load parameters: %w", err)
		}
		target = strings.TrimSpace(params.DBFile)
	}
	if target == "" {
		return errors.New("no database: pass -database or set DBFile")
	}

	var logger *log.Logger
	if !*quiet {
		logger = log.New(os.Stdout, "cryptoarb-migrate ", log.LstdFlags)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch args[0] {
	case "up":
		if strings.TrimSpace(*dir) == "" {
			return migrations.ApplyFS(ctx, target, dbmigrations.Files, ".", logger)
		}
		return migrations.Apply(ctx, target, *dir, logger)
	case "down":
		if strings.TrimSpace(*dir) == "" {
			return errors.New("down requires -path")
		}
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid down steps %q: %w", args[1], err)
			}
			steps = n
		}
		return migrations.Rollback(ctx, target, *dir, steps, logger)
	default:
		return fmt.Errorf("unknown command %q (expected up or down)", args[0])
	}
}
