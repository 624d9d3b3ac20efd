package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultBurstMultiplier is the rate multiple over a broker's median
// per-bucket count that qualifies a bucket as a burst event.
const DefaultBurstMultiplier = 3.0

// DefaultBucketMinutes is the time bucket width for velocity analysis.
const DefaultBucketMinutes = 1

// AnalyzeBursts slices one session's trades into fixed-width time buckets
// per broker and flags buckets whose trade count exceeds burstMultiplier
// times that broker's own median per-bucket count. Each trade counts toward
// both its buyer and its seller broker, since velocity is a property of the
// desk, not of the direction.
//
// The returned Timeline covers all trades of all brokers for visualization.
// A session with no parseable trade times yields empty slices, not an error.
func AnalyzeBursts(trades []Trade, bucketMinutes int, burstMultiplier float64) *BurstResult {
	if bucketMinutes <= 0 {
		bucketMinutes = DefaultBucketMinutes
	}
	if burstMultiplier <= 0 {
		burstMultiplier = DefaultBurstMultiplier
	}

	result := &BurstResult{
		Timeline:      []TimeBucket{},
		BurstEvents:   []BurstEvent{},
		SpeedByBroker: []BrokerSpeed{},
	}

	sessionBuckets := make(map[string]int)            // bucket -> total trade count
	brokerBuckets := make(map[string]map[string]int)  // broker -> bucket -> count
	brokerTotals := make(map[string]int)              // broker -> total trade count

	for _, t := range trades {
		bucket, ok := bucketLabel(t.Time, bucketMinutes)
		if !ok {
			continue
		}
		sessionBuckets[bucket]++

		for _, code := range []string{t.BuyerBroker, t.SellerBroker} {
			if code == "" {
				continue
			}
			if brokerBuckets[code] == nil {
				brokerBuckets[code] = make(map[string]int)
			}
			brokerBuckets[code][bucket]++
			brokerTotals[code]++
		}
	}

	// Session-wide timeline, chronological.
	for bucket, count := range sessionBuckets {
		result.Timeline = append(result.Timeline, TimeBucket{BucketStart: bucket, TradeCount: count})
	}
	sort.Slice(result.Timeline, func(i, j int) bool {
		return result.Timeline[i].BucketStart < result.Timeline[j].BucketStart
	})

	// Per-broker velocity and burst detection against the broker's own
	// median bucket rate for the session.
	for code, buckets := range brokerBuckets {
		counts := make([]float64, 0, len(buckets))
		peak := 0
		for _, c := range buckets {
			counts = append(counts, float64(c))
			if c > peak {
				peak = c
			}
		}
		sort.Float64s(counts)
		median := percentileAt(counts, 0.50)

		result.SpeedByBroker = append(result.SpeedByBroker, BrokerSpeed{
			Broker:        code,
			TradeCount:    brokerTotals[code],
			ActiveBuckets: len(buckets),
			MedianPerMin:  median / float64(bucketMinutes),
			PeakPerMin:    peak,
		})

		threshold := burstMultiplier * median
		for bucket, count := range buckets {
			if float64(count) > threshold {
				result.BurstEvents = append(result.BurstEvents, BurstEvent{
					Broker:      code,
					BucketStart: bucket,
					TradeCount:  count,
				})
			}
		}
	}

	sort.Slice(result.SpeedByBroker, func(i, j int) bool {
		if result.SpeedByBroker[i].TradeCount != result.SpeedByBroker[j].TradeCount {
			return result.SpeedByBroker[i].TradeCount > result.SpeedByBroker[j].TradeCount
		}
		return result.SpeedByBroker[i].Broker < result.SpeedByBroker[j].Broker
	})
	sort.Slice(result.BurstEvents, func(i, j int) bool {
		if result.BurstEvents[i].BucketStart != result.BurstEvents[j].BucketStart {
			return result.BurstEvents[i].BucketStart < result.BurstEvents[j].BucketStart
		}
		return result.BurstEvents[i].Broker < result.BurstEvents[j].Broker
	})

	return result
}

// bucketLabel collapses an HH:MM:SS clock time onto its bucket start label
// (HH:MM). Unparseable times report ok=false and the trade is skipped for
// velocity purposes.
func bucketLabel(clock string, bucketMinutes int) (string, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return "", false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	minute = (minute / bucketMinutes) * bucketMinutes
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
