package alphahunter

import (
	"fmt"
	"log"
	"math"

	"bandarlab/database"
	models "bandarlab/database/models_pkg"
	"bandarlab/database/refdata"
)

// Signal level thresholds
const (
	FireThreshold = 80
	HotThreshold  = 60

	SignalFire = "FIRE"
	SignalHot  = "HOT"
	SignalWarm = "WARM"
)

// MarketCapLookup resolves a ticker's market capitalization in Rupiah.
// Implementations return ok=false when the ticker is unknown; the flow
// impact component then contributes zero instead of failing the score.
type MarketCapLookup interface {
	MarketCap(ticker string) (float64, bool)
}

// StaticMarketCaps is a fixed in-memory MarketCapLookup
type StaticMarketCaps map[string]float64

func (m StaticMarketCaps) MarketCap(ticker string) (float64, bool) {
	v, ok := m[ticker]
	return v, ok
}

// AlphaHunterScore represents a weighted scoring of accumulation setups.
// Maximum score is 100 points across 3 components.
type AlphaHunterScore struct {
	Ticker string `json:"ticker"`

	// Volume spike (max 40 pts): today's lot vs trailing average
	// 0-40: >= 3x = 40, >= 2x = 30, >= 1.5x = 15, below = 0
	VolumeSpike int     `json:"volume_spike"`
	VolumeRatio float64 `json:"volume_ratio"`

	// Price compression (max 30 pts): coefficient of variation of the
	// trailing closes, excluding today
	// 0-30: < 3% = 30, < 5% = 20, above = 0
	Compression   int     `json:"compression"`
	CompressionCV float64 `json:"compression_cv"`

	// Flow impact (max 30 pts): net flow as % of market cap
	// 0-30: >= 0.3% = 30, >= 0.1% = 20, >= 0.05% = 10, below = 0
	// Halved when today's flow is negative (distribution pressure)
	FlowImpact    int     `json:"flow_impact"`
	FlowImpactPct float64 `json:"flow_impact_pct"`

	// Breakdown for logging
	Breakdown map[string]int `json:"breakdown"`
}

// Total calculates the total score (max 100)
func (s *AlphaHunterScore) Total() int {
	total := s.VolumeSpike + s.Compression + s.FlowImpact
	if total > 100 {
		return 100
	}
	if total < 0 {
		return 0
	}
	return total
}

// Level maps the total score to a signal level
func (s *AlphaHunterScore) Level() string {
	total := s.Total()
	switch {
	case total >= FireThreshold:
		return SignalFire
	case total >= HotThreshold:
		return SignalHot
	default:
		return SignalWarm
	}
}

// String returns a formatted breakdown of the score
func (s *AlphaHunterScore) String() string {
	return fmt.Sprintf(
		"Score: %d/100 (%s) [Volume:%d/40, Compression:%d/30, Flow:%d/30]",
		s.Total(), s.Level(), s.VolumeSpike, s.Compression, s.FlowImpact,
	)
}

// Scorer evaluates tickers against the trailing daily summaries
type Scorer struct {
	refRepo    *refdata.Repository
	marketCaps MarketCapLookup
}

// NewScorer creates a new scorer. marketCaps may be nil.
func NewScorer(refRepo *refdata.Repository, marketCaps MarketCapLookup) *Scorer {
	return &Scorer{
		refRepo:    refRepo,
		marketCaps: marketCaps,
	}
}

// Score evaluates one ticker as of trade date endDate (YYYY-MM-DD) using a
// trailing window of daily summaries. Missing inputs degrade the affected
// component to zero; the score itself never fails on incomplete data.
func (s *Scorer) Score(ticker, endDate string) (*AlphaHunterScore, error) {
	summaries, err := s.refRepo.GetTrailingSummaries(ticker, endDate, database.AlphaHunterTrailingDays+1)
	if err != nil {
		return nil, fmt.Errorf("alpha hunter: load summaries for %s: %w", ticker, err)
	}

	score := &AlphaHunterScore{
		Ticker:    ticker,
		Breakdown: make(map[string]int),
	}
	if len(summaries) == 0 {
		return score, nil
	}

	// Summaries arrive newest first; index 0 is "today".
	today := summaries[0]
	trailing := summaries[1:]

	score.VolumeRatio = volumeRatio(today, trailing)
	score.VolumeSpike = scoreVolumeSpike(score.VolumeRatio)
	score.Breakdown["VolumeSpike"] = score.VolumeSpike

	// Compression is a property of the base the spike breaks out of, so
	// today's close stays out of the window.
	score.CompressionCV = closeCV(trailing)
	score.Compression = scoreCompression(score.CompressionCV, len(trailing))
	score.Breakdown["Compression"] = score.Compression

	if s.marketCaps != nil {
		if mcap, ok := s.marketCaps.MarketCap(ticker); ok && mcap > 0 {
			score.FlowImpactPct = math.Abs(today.NetFlowValue) / mcap * 100
			score.FlowImpact = scoreFlowImpact(score.FlowImpactPct, today.NetFlowValue < 0)
		}
	}
	score.Breakdown["FlowImpact"] = score.FlowImpact

	log.Printf("🎯 Alpha hunter %s: %s", ticker, score.String())
	return score, nil
}

// volumeRatio compares today's lot volume against the trailing average
func volumeRatio(today models.DailySummary, trailing []models.DailySummary) float64 {
	if len(trailing) == 0 {
		return 0
	}
	var sum int64
	for _, d := range trailing {
		sum += d.TotalLot
	}
	avg := float64(sum) / float64(len(trailing))
	if avg <= 0 {
		return 0
	}
	return float64(today.TotalLot) / avg
}

// closeCV computes the coefficient of variation of trailing close prices
func closeCV(summaries []models.DailySummary) float64 {
	if len(summaries) < 2 {
		return 0
	}
	var sum float64
	for _, d := range summaries {
		sum += d.ClosePrice
	}
	mean := sum / float64(len(summaries))
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, d := range summaries {
		diff := d.ClosePrice - mean
		variance += diff * diff
	}
	variance /= float64(len(summaries))

	return math.Sqrt(variance) / mean * 100
}

// Scoring helper functions

func scoreVolumeSpike(ratio float64) int {
	switch {
	case ratio >= 3.0:
		return 40
	case ratio >= 2.0:
		return 30
	case ratio >= 1.5:
		return 15
	default:
		return 0
	}
}

func scoreCompression(cv float64, sampleSize int) int {
	// A single close always has zero CV; require a real window.
	if sampleSize < 2 {
		return 0
	}
	switch {
	case cv < 3.0:
		return 30
	case cv < 5.0:
		return 20
	default:
		return 0
	}
}

func scoreFlowImpact(pct float64, negative bool) int {
	var pts int
	switch {
	case pct >= 0.3:
		pts = 30
	case pct >= 0.1:
		pts = 20
	case pct >= 0.05:
		pts = 10
	default:
		pts = 0
	}
	if negative {
		pts /= 2
	}
	return pts
}
