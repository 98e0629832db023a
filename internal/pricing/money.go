package pricing

import "fmt"

// FormatAmount renders cents the way the storefront prints prices,
// dropping the fraction when it is zero: 4500000 -> "$45000".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if cents%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, cents/100)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
