package analysis

import (
	"testing"
)

func TestNormalizeRecordsFieldAliases(t *testing.T) {
	tests := []struct {
		name     string
		record   map[string]interface{}
		expected Trade
	}{
		{
			name: "canonical names",
			record: map[string]interface{}{
				"time": "09:15:00", "price": 1250.0, "lot": 30.0,
				"buyer": "yp", "seller": "AK",
			},
			expected: Trade{Time: "09:15:00", Price: 1250, Lot: 30, BuyerBroker: "YP", SellerBroker: "AK"},
		},
		{
			name: "indonesian field names",
			record: map[string]interface{}{
				"jam": "10:30:15", "harga": "2500", "qty": 12.0,
				"buyer_code": "CC", "seller_code": "PD",
			},
			expected: Trade{Time: "10:30:15", Price: 2500, Lot: 12, BuyerBroker: "CC", SellerBroker: "PD"},
		},
		{
			name: "short broker keys and string numbers",
			record: map[string]interface{}{
				"trade_time": "14:00:00", "price": "1,500", "volume_lot": "250",
				"bb": "KZ", "sb": "BK",
			},
			expected: Trade{Time: "14:00:00", Price: 1500, Lot: 250, BuyerBroker: "KZ", SellerBroker: "BK"},
		},
		{
			name: "missing brokers default empty",
			record: map[string]interface{}{
				"time": "11:00:00", "price": 800.0, "lot": 5.0,
			},
			expected: Trade{Time: "11:00:00", Price: 800, Lot: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, dropped := NormalizeRecords([]map[string]interface{}{tt.record})
			if dropped != 0 {
				t.Fatalf("expected no drops, got %d", dropped)
			}
			if len(trades) != 1 {
				t.Fatalf("expected 1 trade, got %d", len(trades))
			}
			if trades[0] != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, trades[0])
			}
		})
	}
}

func TestNormalizeRecordsDropsEmptyRecords(t *testing.T) {
	records := []map[string]interface{}{
		{"time": "09:00:00", "price": 100.0, "lot": 10.0, "buyer": "YP", "seller": "CC"},
		{"time": "09:00:01"}, // no price, no lot
		nil,
		{"price": "not-a-number", "lot": "junk"},
	}

	trades, dropped := NormalizeRecords(records)

	if len(trades) != 1 {
		t.Errorf("expected 1 surviving trade, got %d", len(trades))
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped records, got %d", dropped)
	}
}

func TestNormalizeRecordsNegativeLot(t *testing.T) {
	records := []map[string]interface{}{
		{"time": "09:00:00", "price": 100.0, "lot": -50.0, "buyer": "YP", "seller": "CC"},
	}

	trades, dropped := NormalizeRecords(records)
	if dropped != 0 {
		t.Fatalf("record with valid price must survive, got %d drops", dropped)
	}
	if trades[0].Lot != 0 {
		t.Errorf("negative lot must default to 0, got %d", trades[0].Lot)
	}
}

func TestTradeValue(t *testing.T) {
	trade := Trade{Price: 1000, Lot: 5}
	// 1000 IDR x 5 lots x 100 shares per lot
	if got := trade.Value(); got != 500000 {
		t.Errorf("expected value 500000, got %v", got)
	}
}
