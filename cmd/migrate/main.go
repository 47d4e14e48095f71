package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/palmmill/backoffice/internal/pkg/env"
)

// schemaVersion is the newest migration the server code expects.
const schemaVersion uint = 5

var (
	errSQLiteManaged = errors.New("DB_DRIVER=sqlite is migrated by the server on startup; this tool only runs the MySQL migrations")
	errUsage         = errors.New("usage")
)

// migrator is the part of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Version() (version uint, dirty bool, err error)
}

func main() {
	// Load settings from .env
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	dbURL, err := databaseURL()
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Connecting to database: %s@%s:%s/%s",
		env.GetEnv("DB_USER", "backoffice"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "backoffice_db"),
	)

	m, err := migrate.New("file://"+env.GetEnv("MIGRATIONS_DIR", "migrations"), dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	msg, err := run(m, os.Args[1:])
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Println(msg)
}

// databaseURL builds the MySQL URL from the same variables the server reads.
func databaseURL() (string, error) {
	if driver := env.GetEnv("DB_DRIVER", "mysql"); driver != "mysql" {
		if driver == "sqlite" {
			return "", errSQLiteManaged
		}
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "backoffice"),
		env.GetEnv("DB_PASSWORD", "backoffice"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "backoffice_db"),
	), nil
}

// run executes one command and returns the line to report.
func run(m migrator, args []string) (string, error) {
	if len(args) == 0 {
		return "", errUsage
	}

	switch args[0] {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			return "No change: database is up to date", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to apply migrations: %w", err)
		}
		return "Migrations applied", nil

	case "down":
		// Roll back the latest migration only
		if err := m.Steps(-1); err != nil {
			return "", fmt.Errorf("failed to roll back the latest migration: %w", err)
		}
		return "Latest migration rolled back", nil

	case "goto":
		if len(args) < 2 {
			return "", errors.New("please pass a version number")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid version number: %w", err)
		}
		err = m.Migrate(uint(version))
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Sprintf("No change: database is already at version %d", version), nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to migrate to version %d: %w", version, err)
		}
		return fmt.Sprintf("Migrated to version %d", version), nil

	case "status":
		return status(m)

	default:
		return "", errUsage
	}
}

func status(m migrator) (string, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Sprintf("No migrations applied yet (ledger expects version %d)", schemaVersion), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read migration version: %w", err)
	}

	msg := fmt.Sprintf("Current migration version: %d", version)
	if dirty {
		msg += " (dirty)"
	}
	switch {
	case version < schemaVersion:
		msg += fmt.Sprintf(", %d behind the ledger schema %d; run up", schemaVersion-version, schemaVersion)
	case version > schemaVersion:
		msg += fmt.Sprintf(", ahead of the ledger schema %d", schemaVersion)
	default:
		msg += ", ledger schema is current"
	}
	return msg, nil
}

func printUsage() {
	fmt.Println("Usage: go run cmd/migrate/main.go [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the latest migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - print the current migration version against the ledger schema")
	fmt.Println("DB_DRIVER=sqlite is not supported; the server migrates SQLite itself.")
}
