package analysis

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field name aliases accepted by the normalizer. The upstream paste/scrape
// pathways are not consistent about naming, so each canonical field maps to
// the set of keys seen in the wild. First alias present wins.
var (
	timeAliases   = []string{"time", "trade_time", "jam", "waktu"}
	priceAliases  = []string{"price", "harga", "trade_price"}
	lotAliases    = []string{"lot", "qty", "volume_lot", "vol_lot"}
	buyerAliases  = []string{"buyer", "buyer_code", "buyer_broker", "buy_broker", "bb"}
	sellerAliases = []string{"seller", "seller_code", "seller_broker", "sell_broker", "sb"}
)

// NormalizeRecords parses loosely-structured trade records into canonical
// Trade values. Missing numeric fields default to 0 and missing string
// fields to the empty string; individual records that carry neither a usable
// lot nor a price are dropped silently rather than failing the batch.
// Returns the normalized trades and the number of dropped records.
func NormalizeRecords(records []map[string]interface{}) ([]Trade, int) {
	trades := make([]Trade, 0, len(records))
	dropped := 0

	for _, rec := range records {
		if rec == nil {
			dropped++
			continue
		}

		trade := Trade{
			Time:         pickString(rec, timeAliases),
			Price:        pickFloat(rec, priceAliases),
			Lot:          pickInt(rec, lotAliases),
			BuyerBroker:  strings.ToUpper(pickString(rec, buyerAliases)),
			SellerBroker: strings.ToUpper(pickString(rec, sellerAliases)),
		}

		// A record with neither lot nor price carries no signal at all.
		if trade.Lot == 0 && trade.Price == 0 {
			dropped++
			continue
		}

		trades = append(trades, trade)
	}

	return trades, dropped
}

// pickString returns the first alias present as a non-empty string.
func pickString(rec map[string]interface{}, aliases []string) string {
	for _, key := range aliases {
		if raw, ok := rec[key]; ok {
			if s, ok := raw.(string); ok && s != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// pickFloat returns the first alias present as a parseable number.
// Numeric fields arrive either as JSON numbers or as formatted strings
// ("1.250,00" style separators are not handled; plain "1250.00" is).
func pickFloat(rec map[string]interface{}, aliases []string) float64 {
	for _, key := range aliases {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		if v, ok := toDecimal(raw); ok {
			f, _ := v.Float64()
			return f
		}
	}
	return 0
}

// pickInt is pickFloat truncated to an integer lot count. Negative lots are
// treated as malformed and default to 0.
func pickInt(rec map[string]interface{}, aliases []string) int64 {
	v := pickFloat(rec, aliases)
	if v < 0 {
		return 0
	}
	return int64(v)
}

// toDecimal coerces the dynamic value shapes the feed produces into a
// decimal. Unparseable values report ok=false so the caller can try the
// next alias.
func toDecimal(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
