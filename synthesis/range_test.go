package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandarlab/analysis"
)

func TestComputeRangeEmptySpan(t *testing.T) {
	result := computeRange(nil, map[string]bool{"YP": true})

	require.NotNil(t, result)
	assert.Equal(t, 0, result.DaysAnalyzed)
	assert.Empty(t, result.RetailCapitulation.Brokers)
	assert.Empty(t, result.ImposterRecurrence.Brokers)
	assert.Equal(t, "", result.ImposterRecurrence.TopGhostBroker)
}

func TestComputeRangeRecurrenceTwoDays(t *testing.T) {
	// YP is flagged as imposter on both days of a 2-day span.
	days := []dayBundle{
		{
			date: "2026-08-03",
			imposter: &analysis.ImposterResult{
				ImposterTrades: []analysis.Trade{{Lot: 500}},
				ByBroker:       []analysis.BrokerImposterStat{{Broker: "YP", TradeCount: 1, TotalValue: 100}},
			},
		},
		{
			date: "2026-08-04",
			imposter: &analysis.ImposterResult{
				ImposterTrades: []analysis.Trade{{Lot: 600}, {Lot: 700}},
				ByBroker:       []analysis.BrokerImposterStat{{Broker: "YP", TradeCount: 2, TotalValue: 250}},
			},
		},
	}

	result := computeRange(days, map[string]bool{"YP": true})

	require.Len(t, result.ImposterRecurrence.Brokers, 1)
	yp := result.ImposterRecurrence.Brokers[0]
	assert.Equal(t, "YP", yp.Broker)
	assert.Equal(t, 2, yp.DaysPresent)
	assert.Equal(t, 100.0, yp.RecurrencePct)
	assert.Equal(t, "YP", result.ImposterRecurrence.TopGhostBroker)
	assert.Equal(t, 3, result.ImposterRecurrence.TotalImposterTrades)
	assert.Equal(t, "2026-08-04", result.ImposterRecurrence.PeakDay)
}

func TestComputeRangeRecurrenceSkipsGaps(t *testing.T) {
	// Only READY days count; the denominator is days analyzed, not the
	// calendar span.
	days := []dayBundle{
		{
			date: "2026-08-03",
			imposter: &analysis.ImposterResult{
				ByBroker: []analysis.BrokerImposterStat{{Broker: "PD", TotalValue: 50}},
			},
		},
		{date: "2026-08-05", imposter: &analysis.ImposterResult{}},
		{
			date: "2026-08-07",
			imposter: &analysis.ImposterResult{
				ByBroker: []analysis.BrokerImposterStat{{Broker: "PD", TotalValue: 75}},
			},
		},
	}

	result := computeRange(days, nil)

	assert.Equal(t, 3, result.DaysAnalyzed)
	require.Len(t, result.ImposterRecurrence.Brokers, 1)
	assert.InDelta(t, 66.67, result.ImposterRecurrence.Brokers[0].RecurrencePct, 0.01)
}

func TestComputeRangeCapitulationFiftyPercentRule(t *testing.T) {
	// YP accumulates to a 1000-lot peak, then distributes down to 400:
	// 60% distributed, which clears the 50% threshold.
	days := []dayBundle{
		{
			date: "2026-08-03",
			nets: []analysis.DailyBrokerNet{{Broker: "YP", BuyLot: 1000, NetLot: 1000}},
		},
		{
			date: "2026-08-04",
			nets: []analysis.DailyBrokerNet{{Broker: "YP", SellLot: 600, NetLot: -600}},
		},
	}

	result := computeRange(days, map[string]bool{"YP": true})

	require.Len(t, result.RetailCapitulation.Brokers, 1)
	yp := result.RetailCapitulation.Brokers[0]
	assert.Equal(t, int64(1000), yp.PeakLot)
	assert.Equal(t, int64(400), yp.CurrentLot)
	assert.Equal(t, 60.0, yp.DistributionPct)
	assert.True(t, yp.IsSafe)
	assert.Equal(t, 1, result.RetailCapitulation.SafeCount)
	assert.Equal(t, 0, result.RetailCapitulation.HoldingCount)
	assert.Equal(t, 60.0, result.RetailCapitulation.OverallPct)
}

func TestComputeRangeCapitulationIgnoresNonRetail(t *testing.T) {
	days := []dayBundle{
		{
			date: "2026-08-03",
			nets: []analysis.DailyBrokerNet{
				{Broker: "YP", NetLot: 500},
				{Broker: "AK", NetLot: 2000}, // foreign, must not appear
			},
		},
	}

	result := computeRange(days, map[string]bool{"YP": true})

	require.Len(t, result.RetailCapitulation.Brokers, 1)
	assert.Equal(t, "YP", result.RetailCapitulation.Brokers[0].Broker)
}

func TestComputeRangeCapitulationNetSellerSkipped(t *testing.T) {
	// A broker that only ever sold inside the window has no positive peak
	// and therefore no depletion percentage to report.
	days := []dayBundle{
		{
			date: "2026-08-03",
			nets: []analysis.DailyBrokerNet{{Broker: "PD", NetLot: -300}},
		},
	}

	result := computeRange(days, map[string]bool{"PD": true})

	assert.Empty(t, result.RetailCapitulation.Brokers)
}

func TestComputeRangeOverallPctIsPeakWeighted(t *testing.T) {
	// Two brokers: one 1000-lot peak fully held (0%), one 1000-lot peak
	// fully distributed (100%). Equal weights average to 50%.
	days := []dayBundle{
		{
			date: "2026-08-03",
			nets: []analysis.DailyBrokerNet{
				{Broker: "YP", NetLot: 1000},
				{Broker: "PD", NetLot: 1000},
			},
		},
		{
			date: "2026-08-04",
			nets: []analysis.DailyBrokerNet{{Broker: "PD", NetLot: -1000}},
		},
	}

	result := computeRange(days, map[string]bool{"YP": true, "PD": true})

	require.Len(t, result.RetailCapitulation.Brokers, 2)
	assert.Equal(t, 50.0, result.RetailCapitulation.OverallPct)
	assert.Equal(t, 1, result.RetailCapitulation.SafeCount)
	assert.Equal(t, 1, result.RetailCapitulation.HoldingCount)
}
