package synthesis

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"bandarlab/analysis"
)

// BrokerCapitulation tracks one retail/mixed broker's position depletion
// across the analyzed span.
type BrokerCapitulation struct {
	Broker          string  `json:"broker"`
	PeakLot         int64   `json:"peak_lot"`
	CurrentLot      int64   `json:"current_lot"`
	DistributionPct float64 `json:"distribution_pct"`
	IsSafe          bool    `json:"is_safe"` // 50% rule: distributed at least half of peak
}

// RetailCapitulation summarizes retail position depletion over the span.
type RetailCapitulation struct {
	OverallPct   float64              `json:"overall_pct"` // value-weighted by peak position
	Brokers      []BrokerCapitulation `json:"brokers"`
	SafeCount    int                  `json:"safe_count"`
	HoldingCount int                  `json:"holding_count"`
}

// BrokerRecurrence tracks how persistently one broker shows up in the
// imposter lists across the span.
type BrokerRecurrence struct {
	Broker        string  `json:"broker"`
	DaysPresent   int     `json:"days_present"`
	RecurrencePct float64 `json:"recurrence_pct"`
	TotalValue    float64 `json:"total_value"`
}

// ImposterRecurrence summarizes cross-session imposter persistence.
type ImposterRecurrence struct {
	Brokers             []BrokerRecurrence `json:"brokers"`
	TotalImposterTrades int                `json:"total_imposter_trades"`
	TopGhostBroker      string             `json:"top_ghost_broker"`
	PeakDay             string             `json:"peak_day"`
}

// RangeAnalysis is the derived, non-persisted view over every READY
// synthesis entry of a ticker within an inclusive date span.
type RangeAnalysis struct {
	Ticker             string             `json:"ticker"`
	StartDate          string             `json:"start_date"`
	EndDate            string             `json:"end_date"`
	DaysAnalyzed       int                `json:"days_analyzed"`
	RetailCapitulation RetailCapitulation `json:"retail_capitulation"`
	ImposterRecurrence ImposterRecurrence `json:"imposter_recurrence"`
}

// dayBundle is one READY day's slice of the range input.
type dayBundle struct {
	date     string
	imposter *analysis.ImposterResult
	nets     []analysis.DailyBrokerNet
}

// GetRangeAnalysis replays the cached per-day syntheses across an inclusive
// date span. Dates with no entry are skipped, not treated as zero. A span
// with zero READY days yields an explicit empty result, not an error. The
// computation is read-only, so ctx cancellation terminates early without
// leaving partial state.
func (s *Service) GetRangeAnalysis(ctx context.Context, ticker, startDate, endDate string) (*RangeAnalysis, error) {
	if startDate > endDate {
		return nil, fmt.Errorf("range analysis: start date %s after end date %s", startDate, endDate)
	}

	entries, err := s.entryRepo.GetRange(ticker, startDate, endDate)
	if err != nil {
		return nil, err
	}

	days := make([]dayBundle, 0, len(entries))
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bundle, err := decodeEntry(&entries[i])
		if err != nil {
			return nil, err
		}
		days = append(days, dayBundle{
			date:     entries[i].TradeDate,
			imposter: bundle.Imposter,
			nets:     bundle.BrokerNets,
		})
	}

	result := computeRange(days, s.classifier.RetailSet(nil))
	result.Ticker = ticker
	result.StartDate = startDate
	result.EndDate = endDate
	return result, nil
}

// computeRange is the pure aggregation over the loaded days, in ascending
// date order.
func computeRange(days []dayBundle, retailSet map[string]bool) *RangeAnalysis {
	result := &RangeAnalysis{
		DaysAnalyzed: len(days),
		RetailCapitulation: RetailCapitulation{
			Brokers: []BrokerCapitulation{},
		},
		ImposterRecurrence: ImposterRecurrence{
			Brokers: []BrokerRecurrence{},
		},
	}
	if len(days) == 0 {
		return result
	}

	sort.Slice(days, func(i, j int) bool { return days[i].date < days[j].date })

	result.RetailCapitulation = computeCapitulation(days, retailSet)
	result.ImposterRecurrence = computeRecurrence(days)
	return result
}

// computeCapitulation applies the 50% rule: a retail broker is considered
// to have capitulated once it has distributed at least half of the peak
// position it accumulated within the span.
//
// The peak baseline is the maximum running net position observed inside
// the queried window. If the true peak predates the window, the depletion
// percentage is understated; that window-start sensitivity is inherited
// from the metric's definition, not corrected here.
func computeCapitulation(days []dayBundle, retailSet map[string]bool) RetailCapitulation {
	rc := RetailCapitulation{Brokers: []BrokerCapitulation{}}

	running := make(map[string]int64)
	peak := make(map[string]int64)

	for _, day := range days {
		for _, net := range day.nets {
			if !retailSet[net.Broker] {
				continue
			}
			running[net.Broker] += net.NetLot
			if running[net.Broker] > peak[net.Broker] {
				peak[net.Broker] = running[net.Broker]
			}
		}
	}

	weightedSum := decimal.Zero
	weightTotal := decimal.Zero

	codes := make([]string, 0, len(running))
	for code := range running {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if peak[code] <= 0 {
			continue
		}
		current := running[code]
		distributed := float64(peak[code]-current) / float64(peak[code]) * 100
		if distributed < 0 {
			distributed = 0
		}

		entry := BrokerCapitulation{
			Broker:          code,
			PeakLot:         peak[code],
			CurrentLot:      current,
			DistributionPct: distributed,
			IsSafe:          distributed >= 50,
		}
		rc.Brokers = append(rc.Brokers, entry)

		if entry.IsSafe {
			rc.SafeCount++
		} else {
			rc.HoldingCount++
		}

		weight := decimal.NewFromInt(peak[code])
		weightedSum = weightedSum.Add(decimal.NewFromFloat(distributed).Mul(weight))
		weightTotal = weightTotal.Add(weight)
	}

	if weightTotal.IsPositive() {
		overall, _ := weightedSum.Div(weightTotal).Float64()
		rc.OverallPct = overall
	}

	sort.Slice(rc.Brokers, func(i, j int) bool {
		if rc.Brokers[i].DistributionPct != rc.Brokers[j].DistributionPct {
			return rc.Brokers[i].DistributionPct > rc.Brokers[j].DistributionPct
		}
		return rc.Brokers[i].Broker < rc.Brokers[j].Broker
	})
	return rc
}

// computeRecurrence counts, per broker, the distinct days it appears in the
// imposter list. The denominator is the number of days actually analyzed,
// not the calendar length of the queried span: dates with no entry are
// skipped rather than treated as zero, and counting them would dilute
// persistence with gaps the broker never had a chance to appear in. A
// broker flagged on both days of a two-day span therefore reads 100%
// regardless of any weekend inside the span.
func computeRecurrence(days []dayBundle) ImposterRecurrence {
	rec := ImposterRecurrence{Brokers: []BrokerRecurrence{}}

	daysPresent := make(map[string]int)
	totalValue := make(map[string]float64)

	peakCount := 0
	for _, day := range days {
		if day.imposter == nil {
			continue
		}
		rec.TotalImposterTrades += len(day.imposter.ImposterTrades)
		if len(day.imposter.ImposterTrades) > peakCount {
			peakCount = len(day.imposter.ImposterTrades)
			rec.PeakDay = day.date
		}
		for _, stat := range day.imposter.ByBroker {
			daysPresent[stat.Broker]++
			totalValue[stat.Broker] += stat.TotalValue
		}
	}

	for broker, present := range daysPresent {
		rec.Brokers = append(rec.Brokers, BrokerRecurrence{
			Broker:        broker,
			DaysPresent:   present,
			RecurrencePct: float64(present) / float64(len(days)) * 100,
			TotalValue:    totalValue[broker],
		})
	}

	// Highest recurrence first, ties broken by total value, then code.
	sort.Slice(rec.Brokers, func(i, j int) bool {
		a, b := rec.Brokers[i], rec.Brokers[j]
		if a.RecurrencePct != b.RecurrencePct {
			return a.RecurrencePct > b.RecurrencePct
		}
		if a.TotalValue != b.TotalValue {
			return a.TotalValue > b.TotalValue
		}
		return a.Broker < b.Broker
	})
	if len(rec.Brokers) > 0 {
		rec.TopGhostBroker = rec.Brokers[0].Broker
	}
	return rec
}
