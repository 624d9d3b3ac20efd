package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Combined signal tuning.
const (
	powerBrokerTopN     = 5
	minPowerBrokers     = 2
	powerBrokerBoostPct = 10.0
)

// CombineSignals fuses an ImposterResult and a BurstResult for the same
// session into one directional conviction signal.
//
// Power brokers are those present in both the imposter top-5 by value and
// the speed top-5 by trade count. The direction rules form an ordered guard
// chain, first match wins:
//
//  1. net imposter flow > 0 and >= 2 power brokers  -> BULLISH
//  2. net imposter flow < 0 and >= 2 power brokers  -> BEARISH
//  3. otherwise                                     -> NEUTRAL
//
// Confidence scales with |net| relative to the total imposter value
// (0-100), boosted by 10 points per power broker beyond the first, capped
// at 100. Money sums run through decimal to keep large IDR aggregates exact.
func CombineSignals(imposter *ImposterResult, burst *BurstResult) *CombinedSignal {
	signal := &CombinedSignal{
		Direction:    DirectionNeutral,
		PowerBrokers: []string{},
	}
	if imposter == nil || burst == nil {
		return signal
	}

	speedTop := make(map[string]bool)
	for i, s := range burst.SpeedByBroker {
		if i >= powerBrokerTopN {
			break
		}
		speedTop[s.Broker] = true
	}
	for i, stat := range imposter.ByBroker {
		if i >= powerBrokerTopN {
			break
		}
		if speedTop[stat.Broker] {
			signal.PowerBrokers = append(signal.PowerBrokers, stat.Broker)
		}
	}
	sort.Strings(signal.PowerBrokers)

	buyValue := decimal.Zero
	sellValue := decimal.Zero
	for _, stat := range imposter.ByBroker {
		buyValue = buyValue.Add(decimal.NewFromFloat(stat.BuyValue))
		sellValue = sellValue.Add(decimal.NewFromFloat(stat.SellValue))
	}
	netValue := buyValue.Sub(sellValue)

	signal.ImposterFlow = ImposterFlow{
		BuyValue:  decimalToFloat(buyValue),
		SellValue: decimalToFloat(sellValue),
		NetValue:  decimalToFloat(netValue),
	}

	power := len(signal.PowerBrokers)
	switch {
	case netValue.IsPositive() && power >= minPowerBrokers:
		signal.Direction = DirectionBullish
	case netValue.IsNegative() && power >= minPowerBrokers:
		signal.Direction = DirectionBearish
	}

	signal.Confidence = confidence(netValue, imposter.TotalValue, power)
	return signal
}

// confidence maps |net| / totalImposterValue onto 0-100, then applies the
// power broker boost with a hard cap at 100.
func confidence(netValue decimal.Decimal, totalImposterValue float64, powerCount int) float64 {
	base := 0.0
	if totalImposterValue > 0 {
		ratio, _ := netValue.Abs().Div(decimal.NewFromFloat(totalImposterValue)).Float64()
		base = ratio * 100
		if base > 100 {
			base = 100
		}
	}

	if powerCount > 1 {
		base += powerBrokerBoostPct * float64(powerCount-1)
	}
	if base > 100 {
		base = 100
	}
	if base < 0 {
		base = 0
	}
	return base
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// ComputeBrokerNets aggregates per-broker net positions for one session.
// The output is persisted inside the synthesis bundle so multi-day range
// analysis can replay positions after the raw ticks are reclaimed.
// Sorted by net lot descending, ties by code, for byte-stable bundles.
func ComputeBrokerNets(trades []Trade) []DailyBrokerNet {
	nets := make(map[string]*DailyBrokerNet)
	get := func(code string) *DailyBrokerNet {
		n, ok := nets[code]
		if !ok {
			n = &DailyBrokerNet{Broker: code}
			nets[code] = n
		}
		return n
	}

	values := make(map[string]decimal.Decimal)
	for _, t := range trades {
		value := decimal.NewFromFloat(t.Value())
		if t.BuyerBroker != "" {
			n := get(t.BuyerBroker)
			n.BuyLot += t.Lot
			values[t.BuyerBroker] = valueOr(values, t.BuyerBroker).Add(value)
		}
		if t.SellerBroker != "" {
			n := get(t.SellerBroker)
			n.SellLot += t.Lot
			values[t.SellerBroker] = valueOr(values, t.SellerBroker).Sub(value)
		}
	}

	out := make([]DailyBrokerNet, 0, len(nets))
	for code, n := range nets {
		n.NetLot = n.BuyLot - n.SellLot
		n.NetValue = decimalToFloat(values[code])
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NetLot != out[j].NetLot {
			return out[i].NetLot > out[j].NetLot
		}
		return out[i].Broker < out[j].Broker
	})
	return out
}

func valueOr(m map[string]decimal.Decimal, code string) decimal.Decimal {
	if v, ok := m[code]; ok {
		return v
	}
	return decimal.Zero
}
