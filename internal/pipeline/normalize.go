package pipeline

import (
	"math"
	"strconv"
	"strings"

	"esgcli/pkg/contracts/domain"
)

// DropReason explains why the normalizer discarded a raw observation.
type DropReason string

const (
	DropNullValue    DropReason = "null_value"
	DropInvalidYear  DropReason = "invalid_year"
	DropInvalidValue DropReason = "invalid_value"
)

// NormalizeResult carries the normalized table together with per-reason
// drop counts, so callers can observe how much of the raw input survived.
type NormalizeResult struct {
	Table   domain.ObservationTable
	Dropped map[DropReason]int
}

// DroppedTotal returns the total number of discarded raw observations.
func (r NormalizeResult) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Normalize converts raw source observations into a uniform table whose
// value column is published under field. Null-valued observations are
// dropped, the period is coerced to an integer year, and non-finite values
// are rejected. A failed coercion drops that single record only; the rest
// of the batch is unaffected.
func Normalize(observations []domain.RawObservation, field string) NormalizeResult {
	result := NormalizeResult{
		Table:   domain.ObservationTable{Field: field},
		Dropped: make(map[DropReason]int),
	}

	for _, obs := range observations {
		if obs.Value == nil {
			result.Dropped[DropNullValue]++
			continue
		}
		value := *obs.Value
		if math.IsNaN(value) || math.IsInf(value, 0) {
			result.Dropped[DropInvalidValue]++
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(obs.Date))
		if err != nil {
			result.Dropped[DropInvalidYear]++
			continue
		}
		result.Table.Rows = append(result.Table.Rows, domain.ObservationRecord{
			CountryName: obs.CountryName,
			CountryCode: obs.CountryCode,
			Year:        year,
			Value:       value,
		})
	}

	return result
}
