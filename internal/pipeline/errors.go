package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifiers used in stage-qualified errors and progress updates.
const (
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageMerge     = "merge"
	StageReduce    = "reduce"
	StageClassify  = "classify"
)

// Sentinel conditions a run can halt on. Each is a distinct terminal state:
// an empty fetch must not be joined, an empty join must not be reduced, and
// a median over zero rows is undefined.
var (
	ErrNoObservations = errors.New("no usable observations")
	ErrNoOverlap      = errors.New("no overlapping data between indicators")
	ErrEmptyInput     = errors.New("empty input")
)

// StageError qualifies a pipeline failure with the stage it occurred in and,
// where relevant, the indicator being processed. It wraps the underlying
// condition so callers can still match the sentinels with errors.Is.
type StageError struct {
	Stage     string
	Indicator string
	Err       error
}

func (e *StageError) Error() string {
	if e.Indicator != "" {
		return fmt.Sprintf("%s stage (indicator %s): %v", e.Stage, e.Indicator, e.Err)
	}
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage, indicator string, err error) *StageError {
	return &StageError{Stage: stage, Indicator: indicator, Err: err}
}
