package pipeline

import (
	"context"
	"fmt"

	"esgcli/pkg/contracts/domain"
)

// YearRange is an inclusive start/end period for a fetch.
type YearRange struct {
	Start int
	End   int
}

// String renders the range in the source API's "start:end" date form.
func (r YearRange) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// Valid reports whether the range is usable.
func (r YearRange) Valid() bool {
	return r.Start > 0 && r.End >= r.Start
}

// ObservationSource retrieves one indicator's time series for a set of
// country codes. Implementations must isolate per-country failures: a
// country that cannot be fetched is skipped, never aborts the batch, and a
// fully failed batch comes back as an empty slice with a nil error. The
// returned error is reserved for conditions that invalidate the whole call,
// such as context cancellation.
type ObservationSource interface {
	Fetch(ctx context.Context, indicatorID string, countries []string, years YearRange) ([]domain.RawObservation, error)

	// Kind names the source strategy ("worldbank", "synthetic") so a run
	// can record which one actually produced its data.
	Kind() string
}
