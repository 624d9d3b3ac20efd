// Package synthesis persists the cached per-session signal bundles.
package synthesis

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bandarlab/database"
	models "bandarlab/database/models_pkg"
)

// Repository handles database operations for synthesis entries
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new synthesis repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInTx inserts a new synthesis entry inside the given transaction.
// The unique index on (ticker, trade_date) is the at-most-one-writer guard:
// a concurrent duplicate insert surfaces as DuplicateKeyError so the losing
// writer can discard its computation.
func CreateInTx(tx *gorm.DB, entry *models.SynthesisEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return &database.DuplicateKeyError{
				Resource: "synthesis entry",
				Key:      fmt.Sprintf("%s/%s", entry.Ticker, entry.TradeDate),
			}
		}
		return fmt.Errorf("CreateInTx: %w", err)
	}
	return nil
}

// ReplaceInTx overwrites an existing entry's bundle in place, keyed by
// (ticker, trade_date). Used by explicit re-ingestion only.
func ReplaceInTx(tx *gorm.DB, entry *models.SynthesisEntry) error {
	err := tx.Model(&models.SynthesisEntry{}).
		Where("ticker = ? AND trade_date = ?", entry.Ticker, entry.TradeDate).
		Updates(map[string]interface{}{
			"imposter_data":    entry.ImposterData,
			"speed_data":       entry.SpeedData,
			"combined_data":    entry.CombinedData,
			"flow_data":        entry.FlowData,
			"raw_record_count": entry.RawRecordCount,
			"generated_at":     entry.GeneratedAt,
			"processed":        entry.Processed,
		}).Error
	if err != nil {
		return fmt.Errorf("ReplaceInTx: %w", err)
	}
	return nil
}

// Get fetches the entry for one session key. Returns NotFoundError when the
// key has never been synthesized; callers map that onto the engine's
// explicit "no synthesis yet" result.
func (r *Repository) Get(ticker, tradeDate string) (*models.SynthesisEntry, error) {
	var entry models.SynthesisEntry
	err := r.db.
		Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundError("synthesis entry", fmt.Sprintf("%s/%s", ticker, tradeDate))
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &entry, nil
}

// GetRange fetches every READY entry of a ticker within an inclusive date
// span, ordered by trade date. Dates without an entry are simply absent
// from the result; the range aggregator skips them rather than treating
// them as zero.
func (r *Repository) GetRange(ticker, startDate, endDate string) ([]models.SynthesisEntry, error) {
	var entries []models.SynthesisEntry
	err := r.db.
		Where("ticker = ? AND trade_date >= ? AND trade_date <= ?", ticker, startDate, endDate).
		Order("trade_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("GetRange: %w", err)
	}
	return entries, nil
}

// Exists reports whether a session key already has an entry.
func (r *Repository) Exists(ticker, tradeDate string) (bool, error) {
	var count int64
	err := r.db.Model(&models.SynthesisEntry{}).
		Where("ticker = ? AND trade_date = ?", ticker, tradeDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return count > 0, nil
}

func isDuplicateKey(err error) bool {
	return err != nil &&
		(errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint"))
}
