package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (empty uses the embedded set)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	src := migrate.Source{Dir: opts.dir}

	// File-only commands work without config or a database.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name")
		}
		target := opts.dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := src.Validate(); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return errors.New("goose migrations target postgres; sqlite schemas are auto-migrated by the api")
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd, "dir": opts.dir})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	m, err := migrate.NewMigrator(sqlDB, src)
	if err != nil {
		return err
	}

	var applied []migrate.Step
	switch opts.cmd {
	case "up":
		applied, err = m.Up(ctx)
	case "down":
		applied, err = m.Down(ctx)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		applied, err = m.To(ctx, opts.version)
	case "status":
		rows, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			state := "pending"
			if r.Applied {
				state = "applied"
			}
			fmt.Printf("%-8s %d %s\n", state, r.Version, r.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}

	for _, s := range applied {
		fmt.Printf("%-4s %d %s\n", s.Direction, s.Version, s.Path)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, fmt.Sprintf("migration complete (%d steps)", len(applied)))
	return nil
}
