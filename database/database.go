// Package database provides connection management and schema setup for the
// bandarlab order-flow synthesis engine.
//
// Two connection styles coexist, mirroring how the repositories use them:
//   - A GORM connection (postgres driver) backing the tick, synthesis, and
//     broker repositories.
//   - A plain database/sql pool (lib/pq) used by the retention sweeper for
//     its bulk raw-tick deletes.
//
// Data models live in the models_pkg subpackage to avoid circular imports.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "bandarlab/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the
// underlying DB instance for the repositories.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes the database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema performs auto-migration for all engine tables and creates the
// uniqueness constraint that enforces at-most-one synthesis writer per
// (ticker, trade_date) key.
func (d *Database) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	err := d.db.AutoMigrate(
		&models.RawTick{},
		&models.SynthesisEntry{},
		&models.BrokerRef{},
		&models.DailySummary{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// AutoMigrate builds these from struct tags already; the explicit
	// statements keep pre-existing databases aligned after manual edits.
	d.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_synthesis_key
		ON synthesis_entries (ticker, trade_date)
	`)
	d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ticks_session
		ON raw_ticks (ticker, trade_date)
	`)

	fmt.Println("✅ Database schema initialization completed successfully")
	return nil
}
