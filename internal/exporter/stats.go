package exporter

import (
	"sort"

	"esgcli/pkg/contracts/domain"
)

// categoryStats aggregates one category's rows for the summary views.
type categoryStats struct {
	Count     int
	MeanRatio float64
	MinRatio  float64
	MaxRatio  float64
	MeanA     float64
	MeanB     float64
}

func summarize(rows []domain.ClassifiedRecord, category domain.Category) categoryStats {
	stats := categoryStats{}
	var sumRatio, sumA, sumB float64
	for _, row := range rows {
		if row.Category != category {
			continue
		}
		if stats.Count == 0 || row.Ratio < stats.MinRatio {
			stats.MinRatio = row.Ratio
		}
		if stats.Count == 0 || row.Ratio > stats.MaxRatio {
			stats.MaxRatio = row.Ratio
		}
		sumRatio += row.Ratio
		sumA += row.ValueA
		sumB += row.ValueB
		stats.Count++
	}
	if stats.Count > 0 {
		stats.MeanRatio = sumRatio / float64(stats.Count)
		stats.MeanA = sumA / float64(stats.Count)
		stats.MeanB = sumB / float64(stats.Count)
	}
	return stats
}

// topPerformers returns the n rows with the lowest ratios, ties broken by
// country code so the slice is stable across runs.
func topPerformers(rows []domain.ClassifiedRecord, n int) []domain.ClassifiedRecord {
	sorted := append([]domain.ClassifiedRecord(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ratio != sorted[j].Ratio {
			return sorted[i].Ratio < sorted[j].Ratio
		}
		return sorted[i].CountryCode < sorted[j].CountryCode
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
