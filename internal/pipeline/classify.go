package pipeline

import (
	"sort"

	"esgcli/pkg/contracts/domain"
)

// Classify computes the median of the ratio column and labels every row:
// Leader when ratio < median, Laggard otherwise. A row exactly at the
// median is a Laggard; the boundary side matters whenever duplicate ratios
// straddle the median, so it is deliberate and must not drift to <=.
// An empty table is an error, because the median of zero rows is undefined.
func Classify(t domain.MergedTable) (domain.ClassifiedTable, error) {
	if len(t.Rows) == 0 {
		return domain.ClassifiedTable{}, ErrEmptyInput
	}

	median := medianRatio(t.Rows)

	classified := domain.ClassifiedTable{
		FieldA: t.FieldA,
		FieldB: t.FieldB,
		Median: median,
		Rows:   make([]domain.ClassifiedRecord, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		category := domain.CategoryLaggard
		if row.Ratio < median {
			category = domain.CategoryLeader
		}
		classified.Rows = append(classified.Rows, domain.ClassifiedRecord{
			MergedRecord: row,
			Category:     category,
		})
	}
	return classified, nil
}

// medianRatio returns the standard statistical median: the middle value for
// odd-sized input, the mean of the two middle values for even-sized input.
func medianRatio(rows []domain.MergedRecord) float64 {
	ratios := make([]float64, len(rows))
	for i, row := range rows {
		ratios[i] = row.Ratio
	}
	sort.Float64s(ratios)

	mid := len(ratios) / 2
	if len(ratios)%2 == 1 {
		return ratios[mid]
	}
	return (ratios[mid-1] + ratios[mid]) / 2
}
