package cli

import (
	"fmt"
	"strings"
)

// FormatCurrency formats an amount with thousands separators and two
// decimal places.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := groupThousands(parts[0])

	result := intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(s[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatQuantitySigned renders a position size with an explicit sign.
func FormatQuantitySigned(qty int) string {
	if qty > 0 {
		return fmt.Sprintf("+%d", qty)
	}
	return fmt.Sprintf("%d", qty)
}
