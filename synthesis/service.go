// Package synthesis orchestrates the one-time, cached signal generation
// pass over each (ticker, trading date) session: normalization, imposter
// detection, burst analysis, and the combined directional signal are run as
// one unit at ingestion time and committed atomically; reads serve the
// cached bundle thereafter without recomputation.
package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bandarlab/analysis"
	"bandarlab/brokers"
	"bandarlab/cache"
	"bandarlab/database"
	models "bandarlab/database/models_pkg"
	"bandarlab/database/refdata"
	synthrepo "bandarlab/database/synthesis"
	"bandarlab/database/ticks"
	"bandarlab/helpers"
)

// ErrNoSynthesis reports a session key that has never been synthesized.
// It is a valid state, distinct from an analyzed-but-empty result; callers
// check it with errors.Is and must not conflate the two.
var ErrNoSynthesis = errors.New("no synthesis for session")

// Config holds the analyzer tuning knobs.
type Config struct {
	BucketMinutes   int
	BurstMultiplier float64
}

// Service is the engine's public surface: ingestion, cached reads, range
// aggregation, and the retention sweep entry point.
type Service struct {
	db         *database.Database
	pool       *database.SQLPool
	tickRepo   *ticks.Repository
	entryRepo  *synthrepo.Repository
	refRepo    *refdata.Repository
	classifier *brokers.Classifier
	redis      *cache.RedisClient // nil disables the hot read path
	cfg        Config
}

// NewService wires the engine together. redis may be nil; every read then
// goes straight to the database.
func NewService(db *database.Database, pool *database.SQLPool, classifier *brokers.Classifier, redis *cache.RedisClient, cfg Config) *Service {
	if cfg.BucketMinutes <= 0 {
		cfg.BucketMinutes = database.BurstBucketMinutes
	}
	if cfg.BurstMultiplier <= 0 {
		cfg.BurstMultiplier = database.BurstMultiplier
	}
	return &Service{
		db:         db,
		pool:       pool,
		tickRepo:   ticks.NewRepository(db.DB()),
		entryRepo:  synthrepo.NewRepository(db.DB()),
		refRepo:    refdata.NewRepository(db.DB()),
		classifier: classifier,
		redis:      redis,
		cfg:        cfg,
	}
}

// Bundle is the deserialized form of one session's cached synthesis.
type Bundle struct {
	Imposter       *analysis.ImposterResult  `json:"imposter"`
	Speed          *analysis.BurstResult     `json:"speed"`
	Combined       *analysis.CombinedSignal  `json:"combined"`
	BrokerNets     []analysis.DailyBrokerNet `json:"broker_nets"`
	RawRecordCount int                       `json:"raw_record_count"`
	GeneratedAt    time.Time                 `json:"generated_at"`
}

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	RecordsSaved       int    `json:"records_saved"`
	RecordsDropped     int    `json:"records_dropped"`
	SynthesisGenerated bool   `json:"synthesis_generated"`
	BatchID            string `json:"batch_id"`
}

// Ingest normalizes and stores raw tick records for one session, then runs
// the full synthesis pass and commits the bundle atomically.
//
// The batch replaces any raw ticks already stored for the key, so a replay
// after a failed generation (or an explicit re-ingestion of a READY key)
// converges on a single copy of the session rather than doubling every
// aggregate. The rows are in place before generation starts: if any
// sub-stage fails, the key stays absent and the replaced ticks remain for
// a safe replay. A concurrent duplicate writer for the same key loses the
// uniqueness race, discards its own computation, and returns success since
// the winning bundle is equivalent.
func (s *Service) Ingest(ctx context.Context, ticker, tradeDate string, rawRecords []map[string]interface{}) (*IngestResult, error) {
	if ticker == "" || tradeDate == "" {
		return nil, fmt.Errorf("ingest: ticker and trade date are required")
	}

	result := &IngestResult{BatchID: uuid.NewString()}

	newTrades, dropped := analysis.NormalizeRecords(rawRecords)
	result.RecordsDropped = dropped

	rows := sessionRows(ticker, tradeDate, result.BatchID, newTrades)

	saved, err := s.tickRepo.ReplaceSession(ticker, tradeDate, rows)
	if err != nil {
		return nil, fmt.Errorf("ingest %s/%s: %w", ticker, tradeDate, err)
	}
	result.RecordsSaved = saved

	if err := s.generate(ctx, ticker, tradeDate); err != nil {
		var dup *database.DuplicateKeyError
		if errors.As(err, &dup) {
			// A concurrent writer won the key; its bundle is equivalent.
			// Our replacement rows duplicate the winner's input, so flag
			// them for the sweep rather than stranding them unprocessed.
			log.Printf("⚠️  Synthesis conflict for %s/%s, keeping winner's bundle", ticker, tradeDate)
			if merr := ticks.MarkProcessed(s.db.DB(), ticker, tradeDate); merr != nil {
				log.Printf("⚠️  Failed to flag conflicting ticks %s/%s: %v", ticker, tradeDate, merr)
			}
			result.SynthesisGenerated = true
			return result, nil
		}
		// Raw ticks stay in place so the caller can replay the ingestion.
		return result, fmt.Errorf("ingest %s/%s: synthesis failed: %w", ticker, tradeDate, err)
	}

	result.SynthesisGenerated = true
	return result, nil
}

// generate runs the four sub-analyses over the full stored session and
// commits the bundle, raw-tick processed flags, and the daily summary in a
// single transaction. Readers see either no entry or the complete bundle,
// never a partial one.
func (s *Service) generate(ctx context.Context, ticker, tradeDate string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sessionRows, err := s.tickRepo.GetSession(ticker, tradeDate)
	if err != nil {
		return err
	}

	trades := make([]analysis.Trade, 0, len(sessionRows))
	for _, row := range sessionRows {
		trades = append(trades, analysis.Trade{
			Time:         row.TradeTime,
			Price:        row.Price,
			Lot:          row.Lot,
			BuyerBroker:  row.BuyerBroker,
			SellerBroker: row.SellerBroker,
		})
	}

	retailSet := s.classifier.RetailSet(nil)
	imposter := analysis.DetectImposters(trades, retailSet)
	speed := analysis.AnalyzeBursts(trades, s.cfg.BucketMinutes, s.cfg.BurstMultiplier)
	combined := analysis.CombineSignals(imposter, speed)
	nets := analysis.ComputeBrokerNets(trades)

	entry, err := encodeEntry(ticker, tradeDate, &Bundle{
		Imposter:       imposter,
		Speed:          speed,
		Combined:       combined,
		BrokerNets:     nets,
		RawRecordCount: len(sessionRows),
		GeneratedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	summary := buildDailySummary(ticker, tradeDate, trades, nets, s.classifier)

	exists, err := s.entryRepo.Exists(ticker, tradeDate)
	if err != nil {
		return err
	}

	err = s.db.DB().Transaction(func(tx *gorm.DB) error {
		if exists {
			if err := synthrepo.ReplaceInTx(tx, entry); err != nil {
				return err
			}
		} else if err := synthrepo.CreateInTx(tx, entry); err != nil {
			return err
		}
		if err := ticks.MarkProcessed(tx, ticker, tradeDate); err != nil {
			return err
		}
		return refdata.UpsertDailySummary(tx, summary)
	})
	if err != nil {
		return err
	}

	s.invalidateCache(ctx, ticker, tradeDate)

	if combined.ImposterFlow.NetValue != 0 {
		log.Printf("📊 Synthesis %s/%s: %s (%.0f%%), imposter net %s over %d ticks",
			ticker, tradeDate, combined.Direction, combined.Confidence,
			helpers.FormatRupiah(combined.ImposterFlow.NetValue), len(sessionRows))
	} else {
		log.Printf("📊 Synthesis %s/%s: %s over %d ticks (%s)",
			ticker, tradeDate, combined.Direction, len(sessionRows), helpers.FormatLot(summary.TotalLot))
	}
	return nil
}

// GetImposter returns the cached imposter result for a session, or
// ErrNoSynthesis when the key was never analyzed.
func (s *Service) GetImposter(ctx context.Context, ticker, tradeDate string) (*analysis.ImposterResult, error) {
	bundle, err := s.loadBundle(ctx, ticker, tradeDate)
	if err != nil {
		return nil, err
	}
	return bundle.Imposter, nil
}

// GetSpeed returns the cached burst/velocity result for a session, or
// ErrNoSynthesis when the key was never analyzed.
func (s *Service) GetSpeed(ctx context.Context, ticker, tradeDate string) (*analysis.BurstResult, error) {
	bundle, err := s.loadBundle(ctx, ticker, tradeDate)
	if err != nil {
		return nil, err
	}
	return bundle.Speed, nil
}

// GetCombined returns the cached combined directional signal for a session,
// or ErrNoSynthesis when the key was never analyzed.
func (s *Service) GetCombined(ctx context.Context, ticker, tradeDate string) (*analysis.CombinedSignal, error) {
	bundle, err := s.loadBundle(ctx, ticker, tradeDate)
	if err != nil {
		return nil, err
	}
	return bundle.Combined, nil
}

// RunRetentionSweep deletes raw ticks whose synthesis committed more than
// graceDays ago. The synthesis entries themselves are never deleted. The
// sweep is idempotent; sweeping an already-clean database deletes nothing.
func (s *Service) RunRetentionSweep(graceDays int) (int64, error) {
	if graceDays <= 0 {
		graceDays = database.DefaultGraceDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -graceDays)
	deleted, err := s.pool.DeleteProcessedTicks(cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if deleted > 0 {
		log.Printf("🧹 Retention sweep reclaimed %d raw ticks older than %d days", deleted, graceDays)
	}
	return deleted, nil
}

// loadBundle serves a session's bundle from Redis when available, falling
// back to the database and repopulating the cache on a miss.
func (s *Service) loadBundle(ctx context.Context, ticker, tradeDate string) (*Bundle, error) {
	key := cacheKey(ticker, tradeDate)

	if s.redis != nil {
		var cached Bundle
		if err := s.redis.Get(ctx, key, &cached); err == nil && cached.Combined != nil {
			return &cached, nil
		}
	}

	entry, err := s.entryRepo.Get(ticker, tradeDate)
	if err != nil {
		var notFound *database.NotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s/%s: %w", ticker, tradeDate, ErrNoSynthesis)
		}
		return nil, err
	}

	bundle, err := decodeEntry(entry)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, bundle, database.SynthesisCacheTTL); err != nil {
			log.Printf("⚠️  Failed to cache synthesis %s/%s: %v", ticker, tradeDate, err)
		}
	}
	return bundle, nil
}

func (s *Service) invalidateCache(ctx context.Context, ticker, tradeDate string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Delete(ctx, cacheKey(ticker, tradeDate)); err != nil {
		log.Printf("⚠️  Failed to invalidate synthesis cache %s/%s: %v", ticker, tradeDate, err)
	}
}

func cacheKey(ticker, tradeDate string) string {
	return fmt.Sprintf("bandarlab:synthesis:%s:%s", ticker, tradeDate)
}

// sessionRows maps normalized trades onto persistable raw tick rows.
// Deterministic apart from the batch ID, so a replayed ingestion replaces
// the session with content-identical rows.
func sessionRows(ticker, tradeDate, batchID string, trades []analysis.Trade) []models.RawTick {
	rows := make([]models.RawTick, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, models.RawTick{
			Ticker:       ticker,
			TradeDate:    tradeDate,
			TradeTime:    t.Time,
			Price:        t.Price,
			Lot:          t.Lot,
			Value:        t.Value(),
			BuyerBroker:  t.BuyerBroker,
			SellerBroker: t.SellerBroker,
			BatchID:      batchID,
		})
	}
	return rows
}

func encodeEntry(ticker, tradeDate string, bundle *Bundle) (*models.SynthesisEntry, error) {
	imposterJSON, err := json.Marshal(bundle.Imposter)
	if err != nil {
		return nil, fmt.Errorf("encode imposter data: %w", err)
	}
	speedJSON, err := json.Marshal(bundle.Speed)
	if err != nil {
		return nil, fmt.Errorf("encode speed data: %w", err)
	}
	combinedJSON, err := json.Marshal(bundle.Combined)
	if err != nil {
		return nil, fmt.Errorf("encode combined data: %w", err)
	}
	flowJSON, err := json.Marshal(bundle.BrokerNets)
	if err != nil {
		return nil, fmt.Errorf("encode flow data: %w", err)
	}

	return &models.SynthesisEntry{
		Ticker:         ticker,
		TradeDate:      tradeDate,
		ImposterData:   imposterJSON,
		SpeedData:      speedJSON,
		CombinedData:   combinedJSON,
		FlowData:       flowJSON,
		RawRecordCount: bundle.RawRecordCount,
		GeneratedAt:    bundle.GeneratedAt,
		Processed:      true,
	}, nil
}

func decodeEntry(entry *models.SynthesisEntry) (*Bundle, error) {
	bundle := &Bundle{
		RawRecordCount: entry.RawRecordCount,
		GeneratedAt:    entry.GeneratedAt,
	}
	if err := json.Unmarshal(entry.ImposterData, &bundle.Imposter); err != nil {
		return nil, fmt.Errorf("decode imposter data %s/%s: %w", entry.Ticker, entry.TradeDate, err)
	}
	if err := json.Unmarshal(entry.SpeedData, &bundle.Speed); err != nil {
		return nil, fmt.Errorf("decode speed data %s/%s: %w", entry.Ticker, entry.TradeDate, err)
	}
	if err := json.Unmarshal(entry.CombinedData, &bundle.Combined); err != nil {
		return nil, fmt.Errorf("decode combined data %s/%s: %w", entry.Ticker, entry.TradeDate, err)
	}
	if len(entry.FlowData) > 0 {
		if err := json.Unmarshal(entry.FlowData, &bundle.BrokerNets); err != nil {
			return nil, fmt.Errorf("decode flow data %s/%s: %w", entry.Ticker, entry.TradeDate, err)
		}
	}
	return bundle, nil
}

// buildDailySummary derives the closing snapshot persisted alongside each
// synthesis. Net flow is the smart-money (institutional/foreign) net value
// for the session.
func buildDailySummary(ticker, tradeDate string, trades []analysis.Trade, nets []analysis.DailyBrokerNet, classifier *brokers.Classifier) *models.DailySummary {
	summary := &models.DailySummary{
		Ticker:     ticker,
		TradeDate:  tradeDate,
		TradeCount: len(trades),
	}
	for _, t := range trades {
		summary.TotalLot += t.Lot
		summary.TotalValue += t.Value()
		summary.ClosePrice = t.Price // session rows arrive time-ordered
	}
	for _, n := range nets {
		switch classifier.Classify(n.Broker, nil) {
		case brokers.CategoryInstitutional, brokers.CategoryForeign:
			summary.NetFlowValue += n.NetValue
		}
	}
	return summary
}
