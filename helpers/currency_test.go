package helpers

import "testing"

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{1500, "Rp 1.500"},
		{2500000, "Rp 2.500.000"},
		{49460000, "Rp 49.460.000"},
		{-1500000, "Rp -1.500.000"},
	}

	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.expected {
			t.Errorf("FormatRupiah(%v) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}

func TestFormatLot(t *testing.T) {
	if got := FormatLot(12500); got != "12.500 lot" {
		t.Errorf("FormatLot(12500) = %q", got)
	}
	if got := FormatLot(-300); got != "-300 lot" {
		t.Errorf("FormatLot(-300) = %q", got)
	}
}
