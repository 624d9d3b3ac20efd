package analysis

import (
	"fmt"
	"testing"
)

func TestAnalyzeBurstsDetectsSpike(t *testing.T) {
	// Broker YP trades once per minute for ten minutes, then ten times in
	// one minute. Median bucket count is 1, so the spike bucket (10 > 3x1)
	// must flag as a burst.
	var trades []Trade
	for i := 0; i < 10; i++ {
		trades = append(trades, Trade{
			Time:        fmt.Sprintf("09:%02d:00", i),
			Price:       1000, Lot: 1,
			BuyerBroker: "YP", SellerBroker: "XX",
		})
	}
	for i := 0; i < 10; i++ {
		trades = append(trades, Trade{
			Time:        fmt.Sprintf("09:30:%02d", i),
			Price:       1000, Lot: 1,
			BuyerBroker: "YP", SellerBroker: "XX",
		})
	}

	result := AnalyzeBursts(trades, 1, 3.0)

	var ypBurst *BurstEvent
	for i := range result.BurstEvents {
		if result.BurstEvents[i].Broker == "YP" {
			ypBurst = &result.BurstEvents[i]
			break
		}
	}
	if ypBurst == nil {
		t.Fatal("expected a burst event for YP")
	}
	if ypBurst.BucketStart != "09:30" {
		t.Errorf("expected burst at 09:30, got %s", ypBurst.BucketStart)
	}
	if ypBurst.TradeCount != 10 {
		t.Errorf("expected burst count 10, got %d", ypBurst.TradeCount)
	}
}

func TestAnalyzeBurstsNoFalsePositiveOnSteadyRate(t *testing.T) {
	// A perfectly steady broker never exceeds its own median multiple.
	var trades []Trade
	for i := 0; i < 30; i++ {
		trades = append(trades, Trade{
			Time:        fmt.Sprintf("10:%02d:00", i),
			Price:       500, Lot: 2,
			BuyerBroker: "CC", SellerBroker: "NI",
		})
	}

	result := AnalyzeBursts(trades, 1, 3.0)

	if len(result.BurstEvents) != 0 {
		t.Errorf("expected no burst events for steady rate, got %d", len(result.BurstEvents))
	}
	if len(result.Timeline) != 30 {
		t.Errorf("expected 30 timeline buckets, got %d", len(result.Timeline))
	}
}

func TestAnalyzeBurstsCountsBothCounterparties(t *testing.T) {
	trades := []Trade{
		{Time: "09:00:00", Price: 100, Lot: 1, BuyerBroker: "YP", SellerBroker: "CC"},
		{Time: "09:00:30", Price: 100, Lot: 1, BuyerBroker: "YP", SellerBroker: "CC"},
	}

	result := AnalyzeBursts(trades, 1, 3.0)

	if len(result.SpeedByBroker) != 2 {
		t.Fatalf("expected speed stats for both brokers, got %d", len(result.SpeedByBroker))
	}
	for _, speed := range result.SpeedByBroker {
		if speed.TradeCount != 2 {
			t.Errorf("broker %s expected count 2, got %d", speed.Broker, speed.TradeCount)
		}
	}
}

func TestAnalyzeBurstsSkipsUnparseableTimes(t *testing.T) {
	trades := []Trade{
		{Time: "garbage", Price: 100, Lot: 1, BuyerBroker: "YP", SellerBroker: "CC"},
		{Time: "", Price: 100, Lot: 1, BuyerBroker: "YP", SellerBroker: "CC"},
	}

	result := AnalyzeBursts(trades, 1, 3.0)

	if len(result.Timeline) != 0 || len(result.SpeedByBroker) != 0 {
		t.Errorf("expected empty result for unparseable times, got %d buckets %d brokers",
			len(result.Timeline), len(result.SpeedByBroker))
	}
}

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		clock    string
		minutes  int
		expected string
		ok       bool
	}{
		{"09:15:30", 1, "09:15", true},
		{"09:17:00", 5, "09:15", true},
		{"14:59:59", 15, "14:45", true},
		{"9:05:00", 1, "09:05", true},
		{"25:00:00", 1, "", false},
		{"bad", 1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			got, ok := bucketLabel(tt.clock, tt.minutes)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("bucketLabel(%q, %d) = (%q, %v), expected (%q, %v)",
					tt.clock, tt.minutes, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
