// Command migrate applies the embedded dossier schema. The connection comes
// from -dsn, or else from the [database] table of the config file with
// DOSSIER_DB_* overrides, matching what the server connects to.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/migrations"
	"github.com/JaimeStill/dossier/pkg/database"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		dsn     = fs.String("dsn", "", "Database URL (overrides the config file)")
		cfgPath = fs.String("config", config.BaseConfigFile, "Config file holding the [database] table")
		up      = fs.Bool("up", false, "Apply all pending migrations")
		down    = fs.Bool("down", false, "Revert all migrations")
		steps   = fs.Int("steps", 0, "Apply N migrations (negative reverts)")
		version = fs.Bool("version", false, "Print the schema version")
		force   = fs.Int("force", -1, "Mark the schema as VERSION without running it")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	forceSet := false
	fs.Visit(func(f *flag.Flag) { forceSet = forceSet || f.Name == "force" })

	if *dsn == "" {
		url, err := databaseURL(*cfgPath)
		if err != nil {
			return err
		}
		*dsn = url
	}

	m, err := migrations.New(*dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("schema already current")
			return nil
		}
		return err
	}

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			return fmt.Errorf("force version %d: %w", *force, err)
		}
		fmt.Printf("schema marked as version %d\n", *force)
	case *up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	case *down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("revert migrations: %w", err)
		}
	case *steps != 0:
		if err := ignoreNoChange(m.Steps(*steps)); err != nil {
			return fmt.Errorf("step %d: %w", *steps, err)
		}
	default:
		fs.Usage()
		return nil
	}

	if v, dirty, err := m.Version(); err == nil {
		fmt.Printf("schema at version %d (dirty: %v)\n", v, dirty)
	}
	return nil
}

// databaseURL reads only the [database] table so migrations run without the
// vault key or scanner roots the full config requires.
func databaseURL(path string) (string, error) {
	var file struct {
		Database database.Config `toml:"database"`
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("read %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &file); err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := file.Database.Finalize(config.DatabaseEnvPrefix); err != nil {
		return "", fmt.Errorf("database config: %w", err)
	}
	return file.Database.URL(), nil
}
