package pipeline

import (
	"esgcli/pkg/contracts/domain"
)

// RatioScale rescales the indicator quotient so typical CO2-per-GDP values
// land in a readable range.
const RatioScale = 1000

type joinKey struct {
	name string
	code string
	year int
}

// Merge inner-joins two normalized indicator tables on
// (country name, country code, year) and derives
// ratio = (value_a / value_b) * RatioScale for every surviving pair.
// Keys present in only one table are discarded, and pairs whose
// denominator is zero are excluded outright so the ratio column stays
// finite. An empty result is valid; the caller decides whether zero
// overlap is terminal.
func Merge(a, b domain.ObservationTable) domain.MergedTable {
	merged := domain.MergedTable{FieldA: a.Field, FieldB: b.Field}

	// Index the right table first; duplicate keys join against every
	// occurrence, in input order, like a plain inner join.
	byKey := make(map[joinKey][]float64, len(b.Rows))
	for _, row := range b.Rows {
		k := joinKey{name: row.CountryName, code: row.CountryCode, year: row.Year}
		byKey[k] = append(byKey[k], row.Value)
	}

	for _, row := range a.Rows {
		k := joinKey{name: row.CountryName, code: row.CountryCode, year: row.Year}
		for _, valueB := range byKey[k] {
			if valueB == 0 {
				continue
			}
			merged.Rows = append(merged.Rows, domain.MergedRecord{
				CountryName: row.CountryName,
				CountryCode: row.CountryCode,
				Year:        row.Year,
				ValueA:      row.Value,
				ValueB:      valueB,
				Ratio:       row.Value / valueB * RatioScale,
			})
		}
	}

	return merged
}
