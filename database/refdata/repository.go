// Package refdata persists the broker reference table and the per-day
// trading summaries consumed by the alpha hunter scorer.
package refdata

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "bandarlab/database/models_pkg"
)

// Repository handles database operations for reference data
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new refdata repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBrokerRefs loads the full broker reference table.
func (r *Repository) GetBrokerRefs() ([]models.BrokerRef, error) {
	var refs []models.BrokerRef
	if err := r.db.Order("code ASC").Find(&refs).Error; err != nil {
		return nil, fmt.Errorf("GetBrokerRefs: %w", err)
	}
	return refs, nil
}

// SeedBrokerRefs inserts reference rows that do not exist yet. Existing
// rows are left untouched so admin edits survive restarts.
func (r *Repository) SeedBrokerRefs(refs []models.BrokerRef) error {
	if len(refs) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&refs).Error
	if err != nil {
		return fmt.Errorf("SeedBrokerRefs: %w", err)
	}
	return nil
}

// UpsertDailySummary writes one session's closing snapshot, replacing any
// previous snapshot for the same (ticker, trade date). Runs inside the
// synthesis commit transaction via tx.
func UpsertDailySummary(tx *gorm.DB, summary *models.DailySummary) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"close_price", "total_lot", "total_value", "net_flow_value", "trade_count",
		}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("UpsertDailySummary: %w", err)
	}
	return nil
}

// GetTrailingSummaries returns up to limit summaries for a ticker at or
// before endDate, most recent first. The alpha hunter treats index 0 as
// "today" and the remainder as the trailing window.
func (r *Repository) GetTrailingSummaries(ticker, endDate string, limit int) ([]models.DailySummary, error) {
	var rows []models.DailySummary
	err := r.db.
		Where("ticker = ? AND trade_date <= ?", ticker, endDate).
		Order("trade_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetTrailingSummaries: %w", err)
	}
	return rows, nil
}
