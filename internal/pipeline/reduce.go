package pipeline

import (
	"esgcli/pkg/contracts/domain"
)

// ReduceLatest collapses a multi-year merged table to one row per country
// code, keeping the row with the maximal year. When several rows share the
// maximal year the first one in input order wins, so the reduction is
// reproducible for a given input ordering. Output rows appear in the order
// each country code was first seen.
func ReduceLatest(t domain.MergedTable) domain.MergedTable {
	latest := make(map[string]domain.MergedRecord, len(t.Rows))
	var order []string

	for _, row := range t.Rows {
		current, seen := latest[row.CountryCode]
		if !seen {
			latest[row.CountryCode] = row
			order = append(order, row.CountryCode)
			continue
		}
		// Strictly greater only: an equal year keeps the earlier row.
		if row.Year > current.Year {
			latest[row.CountryCode] = row
		}
	}

	reduced := domain.MergedTable{FieldA: t.FieldA, FieldB: t.FieldB}
	for _, code := range order {
		reduced.Rows = append(reduced.Rows, latest[code])
	}
	return reduced
}
