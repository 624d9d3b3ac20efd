package database

import "time"

// Retention policy constants
const (
	// DefaultGraceDays is how long processed raw ticks are kept after
	// their synthesis commits before the sweep may reclaim them.
	DefaultGraceDays = 7

	// SweepInterval is how often the retention sweeper wakes up.
	SweepInterval = 6 * time.Hour
)

// Synthesis analysis defaults
const (
	// ImposterPercentile is the lot-size percentile above which a trade
	// counts as a size outlier.
	ImposterPercentile = 0.95

	// BurstMultiplier qualifies a bucket as a burst when its count
	// exceeds this multiple of the broker's median bucket rate.
	BurstMultiplier = 3.0

	// BurstBucketMinutes is the velocity time bucket width.
	BurstBucketMinutes = 1
)

// Alpha hunter trailing windows
const (
	AlphaHunterTrailingDays = 20
)

// Query limits
const (
	DefaultLimit = 50
	MaxLimit     = 100
	BatchSize    = 500
)

// Cache TTLs for hot synthesis reads
const (
	SynthesisCacheTTL = 24 * time.Hour
)
