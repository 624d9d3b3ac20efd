package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// SQLPool wraps a plain database/sql connection pool. The retention sweeper
// runs its bulk deletes through this pool rather than GORM so the delete
// can join raw_ticks against synthesis_entries in one statement.
type SQLPool struct {
	conn *sql.DB
}

// PoolConfig holds connection parameters for the raw pool.
type PoolConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewSQLPool creates the raw connection pool.
func NewSQLPool(cfg PoolConfig) (*SQLPool, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The sweep is a single periodic writer; keep the pool small.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Retention pool connection established")
	return &SQLPool{conn: conn}, nil
}

// Close closes the pool.
func (p *SQLPool) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// DeleteProcessedTicks removes raw tick rows belonging to synthesis entries
// that committed before the cutoff. Only processed rows of processed entries
// qualify; the entries themselves are never touched. Running the statement
// against already-swept keys deletes zero rows, which keeps the sweep
// idempotent.
func (p *SQLPool) DeleteProcessedTicks(cutoff time.Time) (int64, error) {
	result, err := p.conn.Exec(`
		DELETE FROM raw_ticks t
		USING synthesis_entries se
		WHERE t.ticker = se.ticker
		  AND t.trade_date = se.trade_date
		  AND t.processed = TRUE
		  AND se.processed = TRUE
		  AND se.generated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteProcessedTicks: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteProcessedTicks rows affected: %w", err)
	}
	return deleted, nil
}
