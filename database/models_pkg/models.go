package models

import (
	"time"

	"gorm.io/datatypes"
)

// RawTick represents a single done-detail trade record as ingested from the
// exchange feed. Each row captures one executed order match with price, lot
// size, and the broker codes on both sides of the trade.
//
// Key Fields:
//   - Ticker: The stock ticker symbol (indexed for symbol-based queries)
//   - TradeDate: Trading date in YYYY-MM-DD form (indexed; session key)
//   - TradeTime: Local clock time HH:MM:SS within the session
//   - Lot: Exchange lot count (1 lot = 100 shares on IDX)
//   - Value: Price x Lot x 100, in IDR
//   - BuyerBroker/SellerBroker: Uppercase broker codes (e.g. YP, CC, AK)
//   - Processed: Set true once the session's synthesis has been committed;
//     processed rows become eligible for the retention sweep after the
//     grace period
//   - BatchID: Ingestion batch identifier for audit trails
//
// Raw ticks are the bulky input of the engine. They are kept only long
// enough to allow re-generation of a session's synthesis; the derived
// SynthesisEntry outlives them.
type RawTick struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ticker       string    `gorm:"size:10;index:idx_ticks_session,priority:1;not null" json:"ticker"`
	TradeDate    string    `gorm:"size:10;index:idx_ticks_session,priority:2;not null" json:"trade_date"`
	TradeTime    string    `gorm:"size:8;not null" json:"trade_time"`
	Price        float64   `gorm:"type:decimal(15,2);not null" json:"price"`
	Lot          int64     `gorm:"not null" json:"lot"`
	Value        float64   `gorm:"type:decimal(20,2);not null" json:"value"`
	BuyerBroker  string    `gorm:"size:5;not null" json:"buyer_broker"`
	SellerBroker string    `gorm:"size:5;not null" json:"seller_broker"`
	Processed    bool      `gorm:"index;default:false" json:"processed"`
	BatchID      string    `gorm:"size:36" json:"batch_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for RawTick
func (RawTick) TableName() string {
	return "raw_ticks"
}

// SynthesisEntry is the cached bundle of derived signals for one
// (ticker, trade date) session. It is created exactly once per key when the
// session's raw ticks are first fully ingested, and is read-only thereafter;
// regeneration requires an explicit re-ingestion, which overwrites the row.
//
// Key Fields:
//   - Ticker + TradeDate: Composite unique key (at-most-one-writer per key
//     is enforced by the unique index, losing concurrent writers discard)
//   - ImposterData: Serialized imposter detection result (JSONB)
//   - SpeedData: Serialized burst/velocity analysis result (JSONB)
//   - CombinedData: Serialized combined directional signal (JSONB)
//   - FlowData: Serialized per-broker net positions for the session (JSONB),
//     consumed by the multi-day range aggregator after raw ticks are gone
//   - RawRecordCount: Number of raw ticks the bundle was computed from
//   - GeneratedAt: Commit time of the bundle; anchors the retention grace
//     period for the backing raw ticks
//   - Processed: True once the bundle committed; the retention sweep only
//     reclaims raw ticks of processed entries
//
// The entry itself is never removed by the retention sweep; only the bulky
// raw input is reclaimed.
type SynthesisEntry struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Ticker         string         `gorm:"size:10;not null;uniqueIndex:idx_synthesis_key,priority:1" json:"ticker"`
	TradeDate      string         `gorm:"size:10;not null;uniqueIndex:idx_synthesis_key,priority:2" json:"trade_date"`
	ImposterData   datatypes.JSON `gorm:"type:jsonb" json:"imposter_data"`
	SpeedData      datatypes.JSON `gorm:"type:jsonb" json:"speed_data"`
	CombinedData   datatypes.JSON `gorm:"type:jsonb" json:"combined_data"`
	FlowData       datatypes.JSON `gorm:"type:jsonb" json:"flow_data"`
	RawRecordCount int            `gorm:"not null" json:"raw_record_count"`
	GeneratedAt    time.Time      `gorm:"index;not null" json:"generated_at"`
	Processed      bool           `gorm:"default:false" json:"processed"`
}

// TableName specifies the table name for SynthesisEntry
func (SynthesisEntry) TableName() string {
	return "synthesis_entries"
}

// BrokerRef is one row of the static broker reference table: a broker code
// mapped to its firm name and classification categories. Loaded at startup
// into an immutable in-process snapshot; reloads publish a fresh snapshot.
type BrokerRef struct {
	Code       string    `gorm:"primaryKey;size:5" json:"code"`
	Name       string    `gorm:"size:100" json:"name"`
	Categories string    `gorm:"size:50;not null" json:"categories"` // comma-separated: retail,institutional,foreign
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for BrokerRef
func (BrokerRef) TableName() string {
	return "broker_refs"
}

// DailySummary holds one trading day's closing snapshot per ticker. Rows are
// upserted as a by-product of synthesis generation and feed the alpha hunter
// scorer's trailing-window components (volume spike, price compression,
// flow impact).
type DailySummary struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Ticker       string  `gorm:"size:10;not null;uniqueIndex:idx_daily_key,priority:1" json:"ticker"`
	TradeDate    string  `gorm:"size:10;not null;uniqueIndex:idx_daily_key,priority:2" json:"trade_date"`
	ClosePrice   float64 `gorm:"type:decimal(15,2)" json:"close_price"`
	TotalLot     int64   `json:"total_lot"`
	TotalValue   float64 `gorm:"type:decimal(20,2)" json:"total_value"`
	NetFlowValue float64 `gorm:"type:decimal(20,2)" json:"net_flow_value"` // smart-money buy value minus sell value
	TradeCount   int     `json:"trade_count"`
}

// TableName specifies the table name for DailySummary
func (DailySummary) TableName() string {
	return "daily_summaries"
}
