// Command migrate applies the session and catalog schema for the configured database driver.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"declbot/internal/config"
	"declbot/internal/logger"
)

const usage = `Usage: migrate <command>

Commands:
  up          apply every pending migration
  down        revert every migration (drops sessions and the catalog)
  steps N     apply N migrations, or revert -N
  force V     mark version V as clean after a failed migration
  version     print the applied version

The driver and database come from DECLBOT_DB_* settings.`

var errUsage = errors.New("invalid usage")

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

type command struct {
	name string
	arg  int
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}
	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "down", "version":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%w: %s takes no arguments", errUsage, cmd.name)
		}
	case "steps", "force":
		if len(args) != 2 {
			return command{}, fmt.Errorf("%w: %s needs a number", errUsage, cmd.name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("%w: %s: %v", errUsage, cmd.name, err)
		}
		if cmd.name == "steps" && n == 0 {
			return command{}, fmt.Errorf("%w: steps must not be zero", errUsage)
		}
		if cmd.name == "force" && n < 0 {
			return command{}, fmt.Errorf("%w: force needs a non-negative version", errUsage)
		}
		cmd.arg = n
	default:
		return command{}, fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
	}
	return cmd, nil
}

func execute(m migrator, cmd command, out io.Writer, log *zap.Logger) error {
	var err error
	switch cmd.name {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(cmd.arg)
	case "force":
		err = m.Force(cmd.arg)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			_, _ = fmt.Fprintln(out, "no migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("reading schema version: %w", verr)
		}
		_, _ = fmt.Fprintf(out, "version: %d, dirty: %v\n", version, dirty)
		return nil
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date", zap.String("command", cmd.name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cmd.name, err)
	}
	log.Info("migration finished", zap.String("command", cmd.name), zap.Int("arg", cmd.arg))
	return nil
}

func main() {
	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zlog = zlog.Named("migrate").With(zap.String("driver", cfg.DB.Driver))

	// Each driver has its own migration set; the SQL dialects differ.
	m, err := migrate.New("file://db/migrations/"+cfg.DB.Driver, cfg.DB.MigrateURL())
	if err != nil {
		zlog.Fatal("failed to open migrations", zap.Error(err))
	}
	defer m.Close()

	if err := execute(m, cmd, os.Stdout, zlog); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
}
