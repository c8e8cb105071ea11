package exporter

import (
	"fmt"
)

// formatValue renders an indicator value with two decimals so 13.4 shows
// as 13.40.
func formatValue(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatRatio keeps four decimals; ratios are small after the 1000x
// rescale and lose meaning at two.
func formatRatio(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
