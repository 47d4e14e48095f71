package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var (
	// DB holds transport plans and certificates.
	DB *gorm.DB
	// InspectionDB holds inspections. It is DB unless INSPECTION_DB_NAME is set.
	InspectionDB *gorm.DB
)

// GetDB returns the primary database handle
func GetDB() *gorm.DB {
	return DB
}

// GetInspectionDB returns the inspection database handle
func GetInspectionDB() *gorm.DB {
	if InspectionDB == nil {
		return DB
	}
	return InspectionDB
}

// SetupDatabase connects the primary and inspection databases and migrates them.
func SetupDatabase() {
	var err error
	DB, err = openWithRetry(env.GetEnv("DB_NAME", ""))
	if err != nil {
		panic(err)
	}
	if err := Migrate(DB); err != nil {
		panic(err)
	}

	InspectionDB = DB
	if name := env.GetEnv("INSPECTION_DB_NAME", ""); name != "" && env.GetEnv("DB_DRIVER", "mysql") == "mysql" {
		InspectionDB, err = openWithRetry(name)
		if err != nil {
			panic(err)
		}
		if err := MigrateInspections(InspectionDB); err != nil {
			panic(err)
		}
	}
}

func openWithRetry(dbName string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = Open(dbName)
		if err == nil {
			return db, nil
		}

		fiberlog.Warnf("Failed to connect to database %s (try %d/%d): %v", dbName, i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}

// Open opens one database using DB_DRIVER (mysql or sqlite).
func Open(dbName string) (*gorm.DB, error) {
	if env.GetEnv("DB_DRIVER", "mysql") == "sqlite" {
		return OpenSQLite(env.GetEnv("DB_PATH", "backoffice.db"))
	}

	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		dbName,
	)
	return gorm.Open(mysql.New(mysql.Config{
		DSN:                       dsn,
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
}

// OpenSQLite opens a CGO-free SQLite database, used for local runs and tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// Migrate creates or updates the plan ledger tables, including inspections.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TransportPlan{},
		&models.Certificate{},
		&models.Inspection{},
	)
}

// MigrateInspections migrates a standalone inspection database.
func MigrateInspections(db *gorm.DB) error {
	return db.AutoMigrate(&models.Inspection{})
}
