package helpers

import "fmt"

// FormatRupiah formats a number as Indonesian Rupiah currency
func FormatRupiah(amount float64) string {
	value := int64(amount)

	negative := value < 0
	if negative {
		value = -value
	}

	str := groupThousands(value)
	if negative {
		return fmt.Sprintf("Rp -%s", str)
	}
	return fmt.Sprintf("Rp %s", str)
}

// FormatLot formats a lot count with thousand separators
func FormatLot(lot int64) string {
	negative := lot < 0
	if negative {
		lot = -lot
	}
	str := groupThousands(lot)
	if negative {
		return "-" + str + " lot"
	}
	return str + " lot"
}

// groupThousands inserts dots as thousand separators (Indonesian convention)
func groupThousands(value int64) string {
	str := fmt.Sprintf("%d", value)
	length := len(str)
	if length <= 3 {
		return str
	}

	var result string
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result += "."
		}
		result += string(digit)
	}
	return result
}
