package analysis

import (
	"math"
	"sort"
)

// DetectImposters flags trades whose lot size is a statistical outlier for
// the session AND whose counterparty is a retail/mixed-classified broker.
// Such trades are suspected of being placed on behalf of a larger, hidden
// participant routing through a retail desk.
//
// retailSet is the set of broker codes classified retail or mixed for this
// analysis. Both counterparties of a trade are checked independently; a
// trade attributes to two brokers when both sides qualify.
//
// A session with zero trades yields all-zero thresholds and empty lists,
// not an error. Small sessions still compute percentiles on whatever lots
// are available; there is no minimum-sample rejection.
func DetectImposters(trades []Trade, retailSet map[string]bool) *ImposterResult {
	result := &ImposterResult{
		ImposterTrades: []Trade{},
		ByBroker:       []BrokerImposterStat{},
	}

	lots := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.Lot > 0 {
			lots = append(lots, float64(t.Lot))
		}
	}
	if len(lots) == 0 {
		return result
	}

	sort.Float64s(lots)
	result.Thresholds = LotThresholds{
		P95:    percentileAt(lots, 0.95),
		P99:    percentileAt(lots, 0.99),
		Median: percentileAt(lots, 0.50),
		Mean:   mean(lots),
	}

	byBroker := make(map[string]*BrokerImposterStat)
	for _, t := range trades {
		if float64(t.Lot) < result.Thresholds.P95 || t.Lot <= 0 {
			continue
		}

		buyerHit := retailSet[t.BuyerBroker]
		sellerHit := retailSet[t.SellerBroker]
		if !buyerHit && !sellerHit {
			continue
		}

		result.ImposterTrades = append(result.ImposterTrades, t)
		result.TotalValue += t.Value()

		if buyerHit {
			stat := brokerStat(byBroker, t.BuyerBroker)
			stat.TradeCount++
			stat.TotalLot += t.Lot
			stat.TotalValue += t.Value()
			stat.BuyValue += t.Value()
		}
		if sellerHit {
			stat := brokerStat(byBroker, t.SellerBroker)
			stat.TradeCount++
			stat.TotalLot += t.Lot
			stat.TotalValue += t.Value()
			stat.SellValue += t.Value()
		}
	}

	for _, stat := range byBroker {
		result.ByBroker = append(result.ByBroker, *stat)
	}
	// Sorted by value desc (ties by code) so identical inputs always
	// serialize to identical bundles.
	sort.Slice(result.ByBroker, func(i, j int) bool {
		if result.ByBroker[i].TotalValue != result.ByBroker[j].TotalValue {
			return result.ByBroker[i].TotalValue > result.ByBroker[j].TotalValue
		}
		return result.ByBroker[i].Broker < result.ByBroker[j].Broker
	})

	return result
}

func brokerStat(m map[string]*BrokerImposterStat, code string) *BrokerImposterStat {
	stat, ok := m[code]
	if !ok {
		// Single-session recurrence is fixed at 100; cross-session
		// recurrence is a distinct metric owned by the range aggregator.
		stat = &BrokerImposterStat{Broker: code, RecurrencePct: 100}
		m[code] = stat
	}
	return stat
}

// percentileAt returns the value at index ceil(n*q)-1 of an ascending
// sorted slice, clamped to [0, n-1].
func percentileAt(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*q)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
