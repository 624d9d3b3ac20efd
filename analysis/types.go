// Package analysis contains the pure CPU-bound stages of the order-flow
// synthesis engine: tick normalization, imposter (suspicious large order)
// detection, burst/velocity analysis, and the combined directional signal.
// Nothing in this package performs I/O; every function is a deterministic
// transform over one session's trades and is safe to run in parallel across
// distinct ticker/date sessions.
package analysis

// SharesPerLot is the exchange trading unit: 1 lot = 100 shares on IDX.
const SharesPerLot = 100

// Trade is one canonical executed order match within a session.
// Immutable once produced by the normalizer.
type Trade struct {
	Time         string  `json:"time"` // local clock time, HH:MM:SS
	Price        float64 `json:"price"`
	Lot          int64   `json:"lot"`
	BuyerBroker  string  `json:"buyer_broker"`
	SellerBroker string  `json:"seller_broker"`
}

// Value returns the trade's transaction value in IDR.
func (t Trade) Value() float64 {
	return t.Price * float64(t.Lot) * SharesPerLot
}

// LotThresholds holds the session-local lot size distribution statistics.
// Thresholds are always recomputed from the session's own lot distribution,
// never taken from a global constant.
type LotThresholds struct {
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
}

// BrokerImposterStat aggregates all imposter trades attributed to one broker
// within a session.
type BrokerImposterStat struct {
	Broker        string  `json:"broker"`
	TradeCount    int     `json:"trade_count"`
	TotalLot      int64   `json:"total_lot"`
	TotalValue    float64 `json:"total_value"`
	BuyValue      float64 `json:"buy_value"`  // value where this broker was the buyer
	SellValue     float64 `json:"sell_value"` // value where this broker was the seller
	RecurrencePct float64 `json:"recurrence_pct"`
}

// ImposterResult is the per-session output of the imposter detector.
// ByBroker is sorted by TotalValue descending so serialized bundles are
// byte-stable across identical re-ingestions.
type ImposterResult struct {
	Thresholds     LotThresholds        `json:"thresholds"`
	ImposterTrades []Trade              `json:"imposter_trades"`
	ByBroker       []BrokerImposterStat `json:"by_broker"`
	TotalValue     float64              `json:"total_value"` // summed value of all imposter trades
}

// TimeBucket is one slot of the session-wide trade timeline.
type TimeBucket struct {
	BucketStart string `json:"bucket_start"` // HH:MM
	TradeCount  int    `json:"trade_count"`
}

// BurstEvent flags one broker's time bucket whose trade count exceeded the
// burst multiple of that broker's median per-bucket rate.
type BurstEvent struct {
	Broker      string `json:"broker"`
	BucketStart string `json:"bucket_start"`
	TradeCount  int    `json:"trade_count"`
}

// BrokerSpeed summarizes one broker's trading velocity over the session.
type BrokerSpeed struct {
	Broker        string  `json:"broker"`
	TradeCount    int     `json:"trade_count"`
	ActiveBuckets int     `json:"active_buckets"`
	MedianPerMin  float64 `json:"median_per_min"`
	PeakPerMin    int     `json:"peak_per_min"`
}

// BurstResult is the per-session output of the burst/speed analyzer.
// SpeedByBroker is sorted by TradeCount descending for byte-stable bundles.
type BurstResult struct {
	Timeline      []TimeBucket  `json:"timeline"`
	BurstEvents   []BurstEvent  `json:"burst_events"`
	SpeedByBroker []BrokerSpeed `json:"speed_by_broker"`
}

// Signal directions for CombinedSignal.
const (
	DirectionBullish = "BULLISH"
	DirectionBearish = "BEARISH"
	DirectionNeutral = "NEUTRAL"
)

// ImposterFlow is the directional value decomposition of a session's
// imposter trades: value bought through flagged brokers vs value sold.
type ImposterFlow struct {
	BuyValue  float64 `json:"buy_value"`
	SellValue float64 `json:"sell_value"`
	NetValue  float64 `json:"net_value"`
}

// CombinedSignal fuses the imposter and burst outputs into a single
// directional conviction read for the session. It is the single source of
// truth for "today's" direction and is recomputed as a whole whenever either
// input changes, never partially updated.
type CombinedSignal struct {
	Direction    string       `json:"direction"`  // BULLISH, BEARISH, NEUTRAL
	Confidence   float64      `json:"confidence"` // 0-100
	PowerBrokers []string     `json:"power_brokers"`
	ImposterFlow ImposterFlow `json:"imposter_flow"`
}

// DailyBrokerNet aggregates one broker's net position for one session.
// Recomputed fresh during synthesis and persisted only inside the cached
// bundle, so the range aggregator can replay positions after the backing
// raw ticks have been reclaimed.
type DailyBrokerNet struct {
	Broker   string  `json:"broker"`
	BuyLot   int64   `json:"buy_lot"`
	SellLot  int64   `json:"sell_lot"`
	NetLot   int64   `json:"net_lot"`
	NetValue float64 `json:"net_value"`
}
