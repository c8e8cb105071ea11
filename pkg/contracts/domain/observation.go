package domain

// RawObservation is a single (country, year) reading exactly as an
// observation source returned it, before any cleaning. Value is a pointer
// because sources report missing readings as null, and Date is kept as the
// source string until the normalizer coerces it.
type RawObservation struct {
	CountryName string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
	IndicatorID string   `json:"indicator_id"`
}

// ObservationRecord is one normalized row of a single-indicator table.
// Value is never NaN, Inf, or missing.
type ObservationRecord struct {
	CountryName string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Year        int     `json:"year"`
	Value       float64 `json:"value"`
}

// ObservationTable holds the normalized rows for one indicator. Field is the
// caller-supplied column name the indicator values are published under
// (e.g. "co2_per_capita"), so two tables can sit side by side after a merge.
// (CountryCode, Year) is the natural key but is not required to be unique;
// the latest-period reduction resolves repeats.
type ObservationTable struct {
	Field string              `json:"field"`
	Rows  []ObservationRecord `json:"rows"`
}

// MergedRecord is one row of the inner join of two indicator tables, with
// the derived efficiency ratio. Ratio is always finite: the merger never
// emits a row whose denominator was zero.
type MergedRecord struct {
	CountryName string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Year        int     `json:"year"`
	ValueA      float64 `json:"value_a"`
	ValueB      float64 `json:"value_b"`
	Ratio       float64 `json:"ratio"`
}

// MergedTable is a joined two-indicator table. FieldA and FieldB carry the
// column names of the source tables so reporting can label the value
// columns without re-deriving anything. A reduced table additionally holds
// at most one row per country code.
type MergedTable struct {
	FieldA string         `json:"field_a"`
	FieldB string         `json:"field_b"`
	Rows   []MergedRecord `json:"rows"`
}

// Category is the performance class assigned by the median split.
type Category string

const (
	CategoryLeader  Category = "Leader"
	CategoryLaggard Category = "Laggard"
)

// ClassifiedRecord is a latest-period row plus its performance class.
type ClassifiedRecord struct {
	MergedRecord
	Category Category `json:"category"`
}

// ClassifiedTable is the pipeline's output boundary: one classified row per
// country, the median the split was computed against, and the value-column
// names. Reporting consumes this table as-is.
type ClassifiedTable struct {
	FieldA string             `json:"field_a"`
	FieldB string             `json:"field_b"`
	Median float64            `json:"median"`
	Rows   []ClassifiedRecord `json:"rows"`
}

// Columns returns the output column names in contract order.
func (t *ClassifiedTable) Columns() []string {
	return []string{"country", "country_code", "year", t.FieldA, t.FieldB, "ratio", "category"}
}

// CountByCategory returns how many rows fall in each class.
func (t *ClassifiedTable) CountByCategory() map[Category]int {
	counts := make(map[Category]int, 2)
	for _, r := range t.Rows {
		counts[r.Category]++
	}
	return counts
}

// TabularRows renders the table as generic rows keyed by the contract
// column names, for consumers that want the indicator fields under their
// configured names rather than value_a/value_b.
func (t *ClassifiedTable) TabularRows() []map[string]any {
	rows := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, map[string]any{
			"country":      r.CountryName,
			"country_code": r.CountryCode,
			"year":         r.Year,
			t.FieldA:       r.ValueA,
			t.FieldB:       r.ValueB,
			"ratio":        r.Ratio,
			"category":     r.Category,
		})
	}
	return rows
}
