// Package ticks persists the raw done-detail trade rows backing each
// session's synthesis.
package ticks

import (
	"fmt"

	"gorm.io/gorm"

	"bandarlab/database"
	models "bandarlab/database/models_pkg"
)

// Repository handles database operations for raw tick rows
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ticks repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceSession atomically swaps a session's stored raw ticks for the
// given batch: any rows already present for the (ticker, trade date) key
// are deleted and the batch is inserted in their place, all in one
// transaction. A re-played ingestion therefore converges on exactly one
// copy of the session instead of appending a second; concurrent
// replacements of the same key serialize on the deleted rows' locks and
// the last committer's batch is the session.
func (r *Repository) ReplaceSession(ticker, tradeDate string, rows []models.RawTick) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
			Delete(&models.RawTick{}).Error; err != nil {
			return fmt.Errorf("clear session: %w", err)
		}

		for i := 0; i < len(rows); i += database.BatchSize {
			end := i + database.BatchSize
			if end > len(rows) {
				end = len(rows)
			}
			batch := rows[i:end]
			if err := tx.CreateInBatches(batch, len(batch)).Error; err != nil {
				return fmt.Errorf("insert chunk %d: %w", i/database.BatchSize, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ReplaceSession: %w", err)
	}

	return len(rows), nil
}

// GetSession retrieves every raw tick of one (ticker, trade date) session
// ordered by session time.
func (r *Repository) GetSession(ticker, tradeDate string) ([]models.RawTick, error) {
	var rows []models.RawTick
	err := r.db.
		Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
		Order("trade_time ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	return rows, nil
}

// CountSession returns the number of raw ticks stored for a session key.
func (r *Repository) CountSession(ticker, tradeDate string) (int64, error) {
	var count int64
	err := r.db.Model(&models.RawTick{}).
		Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("CountSession: %w", err)
	}
	return count, nil
}

// MarkProcessed flags a session's raw ticks as consumed by a committed
// synthesis, making them eligible for the retention sweep after the grace
// period. Intended to run inside the synthesis commit transaction via tx.
func MarkProcessed(tx *gorm.DB, ticker, tradeDate string) error {
	err := tx.Model(&models.RawTick{}).
		Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
		Update("processed", true).Error
	if err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	return nil
}
