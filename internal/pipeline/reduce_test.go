package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/pkg/contracts/domain"
)

func mergedRow(code string, year int, ratio float64) domain.MergedRecord {
	return domain.MergedRecord{CountryName: code, CountryCode: code, Year: year, ValueA: ratio, ValueB: 1000, Ratio: ratio}
}

func TestReduceLatest_SelectsMaxYearPerCountry(t *testing.T) {
	table := domain.MergedTable{
		FieldA: "co2_per_capita",
		FieldB: "gdp_per_capita",
		Rows: []domain.MergedRecord{
			mergedRow("DEU", 2020, 5),
			mergedRow("DEU", 2021, 7),
			mergedRow("FRA", 2022, 3),
			mergedRow("FRA", 2019, 4),
		},
	}

	reduced := ReduceLatest(table)

	require.Len(t, reduced.Rows, 2)
	byCode := map[string]domain.MergedRecord{}
	for _, row := range reduced.Rows {
		byCode[row.CountryCode] = row
	}
	assert.Equal(t, 2021, byCode["DEU"].Year)
	assert.Equal(t, 7.0, byCode["DEU"].Ratio)
	assert.Equal(t, 2022, byCode["FRA"].Year)
}

func TestReduceLatest_OneRowPerCountryCode(t *testing.T) {
	table := domain.MergedTable{Rows: []domain.MergedRecord{
		mergedRow("USA", 2018, 1),
		mergedRow("USA", 2019, 2),
		mergedRow("USA", 2020, 3),
		mergedRow("CHN", 2020, 4),
	}}

	reduced := ReduceLatest(table)

	require.Len(t, reduced.Rows, 2)
	seen := map[string]bool{}
	for _, row := range reduced.Rows {
		assert.False(t, seen[row.CountryCode], "country %s appeared twice", row.CountryCode)
		seen[row.CountryCode] = true
	}
}

func TestReduceLatest_TieKeepsFirstInInputOrder(t *testing.T) {
	first := mergedRow("DEU", 2021, 7)
	second := mergedRow("DEU", 2021, 9)
	table := domain.MergedTable{Rows: []domain.MergedRecord{first, second}}

	reduced := ReduceLatest(table)

	require.Len(t, reduced.Rows, 1)
	assert.Equal(t, first.Ratio, reduced.Rows[0].Ratio)

	// Deterministic across repeated runs over the same input.
	again := ReduceLatest(table)
	assert.Equal(t, reduced, again)
}

func TestReduceLatest_EmptyInput(t *testing.T) {
	reduced := ReduceLatest(domain.MergedTable{FieldA: "a", FieldB: "b"})

	assert.Empty(t, reduced.Rows)
	assert.Equal(t, "a", reduced.FieldA)
}

func TestReduceLatest_CarriesWholeRowNotJustYear(t *testing.T) {
	table := domain.MergedTable{Rows: []domain.MergedRecord{
		{CountryName: "Germany", CountryCode: "DEU", Year: 2020, ValueA: 8.1, ValueB: 46773, Ratio: 0.173},
		{CountryName: "Germany", CountryCode: "DEU", Year: 2021, ValueA: 7.9, ValueB: 51203, Ratio: 0.154},
	}}

	reduced := ReduceLatest(table)

	require.Len(t, reduced.Rows, 1)
	assert.Equal(t, table.Rows[1], reduced.Rows[0])
}
