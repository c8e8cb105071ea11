package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"esgcli/pkg/contracts/domain"
)

// Spec describes one analysis invocation. All values are caller-supplied;
// the pipeline holds no built-in indicator or country state.
type Spec struct {
	IndicatorA string
	IndicatorB string
	FieldA     string
	FieldB     string
	Countries  []string
	Years      YearRange
}

// Validate checks the spec before any network work starts.
func (s Spec) Validate() error {
	if s.IndicatorA == "" || s.IndicatorB == "" {
		return fmt.Errorf("both indicator IDs are required")
	}
	if s.FieldA == "" || s.FieldB == "" {
		return fmt.Errorf("both field names are required")
	}
	if s.FieldA == s.FieldB {
		return fmt.Errorf("field names must differ, got %q twice", s.FieldA)
	}
	if len(s.Countries) == 0 {
		return fmt.Errorf("country list must not be empty")
	}
	if !s.Years.Valid() {
		return fmt.Errorf("invalid year range %s", s.Years)
	}
	return nil
}

// ProgressUpdate is a one-way status message emitted as the run advances.
type ProgressUpdate struct {
	Stage    string  `json:"stage"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// ProgressFunc receives progress updates. It is called from the goroutine
// running the pipeline and must not block for long.
type ProgressFunc func(ProgressUpdate)

// IndicatorStats records how one indicator fared through fetch and
// normalization.
type IndicatorStats struct {
	IndicatorID string             `json:"indicator_id"`
	Fetched     int                `json:"fetched"`
	Kept        int                `json:"kept"`
	Dropped     map[DropReason]int `json:"dropped"`
}

// Result is a completed run: the classified output table plus enough
// run metadata to tell what happened (which source strategy produced the
// data, how many raw rows each indicator contributed, what survived the
// join).
type Result struct {
	Table      domain.ClassifiedTable `json:"table"`
	Source     string                 `json:"source"`
	IndicatorA IndicatorStats         `json:"indicator_a"`
	IndicatorB IndicatorStats         `json:"indicator_b"`
	MergedRows int                    `json:"merged_rows"`
	StartedAt  time.Time              `json:"started_at"`
	Duration   time.Duration          `json:"duration"`
}

// Runner executes the full ingest, merge, reduce, classify sequence against
// a single observation source.
type Runner struct {
	source   ObservationSource
	logger   *slog.Logger
	progress ProgressFunc
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a runner bound to one observation source.
func NewRunner(source ObservationSource, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{source: source, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline for spec. It halts with a stage-qualified error
// on the distinct terminal conditions: nothing usable fetched for an
// indicator, zero overlap between the two indicators, or an empty
// classification input. Per-country fetch failures never surface here; the
// source absorbs them.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{Source: r.source.Kind(), StartedAt: start}

	r.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("source", result.Source),
		slog.String("indicator_a", spec.IndicatorA),
		slog.String("indicator_b", spec.IndicatorB),
		slog.Int("countries", len(spec.Countries)),
		slog.String("years", spec.Years.String()))

	tableA, statsA, err := r.ingest(ctx, spec, spec.IndicatorA, spec.FieldA, 0)
	if err != nil {
		return nil, err
	}
	result.IndicatorA = statsA

	tableB, statsB, err := r.ingest(ctx, spec, spec.IndicatorB, spec.FieldB, 30)
	if err != nil {
		return nil, err
	}
	result.IndicatorB = statsB

	r.report(StageMerge, 60, fmt.Sprintf("joining %s and %s", spec.FieldA, spec.FieldB))
	merged := Merge(tableA, tableB)
	if len(merged.Rows) == 0 {
		return nil, stageErr(StageMerge, "", ErrNoOverlap)
	}
	result.MergedRows = len(merged.Rows)
	r.logger.InfoContext(ctx, "tables merged", slog.Int("rows", len(merged.Rows)))

	r.report(StageReduce, 75, "reducing to latest year per country")
	latest := ReduceLatest(merged)

	r.report(StageClassify, 90, "classifying by median ratio")
	classified, err := Classify(latest)
	if err != nil {
		return nil, stageErr(StageClassify, "", err)
	}
	result.Table = classified
	result.Duration = time.Since(start)

	counts := classified.CountByCategory()
	r.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("countries", len(classified.Rows)),
		slog.Float64("median_ratio", classified.Median),
		slog.Int("leaders", counts[domain.CategoryLeader]),
		slog.Int("laggards", counts[domain.CategoryLaggard]),
		slog.Duration("duration", result.Duration))
	r.report(StageClassify, 100, fmt.Sprintf("classified %d countries", len(classified.Rows)))

	return result, nil
}

// ingest fetches and normalizes one indicator. baseProgress spreads the two
// ingest passes across the progress scale.
func (r *Runner) ingest(ctx context.Context, spec Spec, indicatorID, field string, baseProgress float64) (domain.ObservationTable, IndicatorStats, error) {
	stats := IndicatorStats{IndicatorID: indicatorID}

	r.report(StageFetch, baseProgress+5, fmt.Sprintf("fetching %s", indicatorID))
	raw, err := r.source.Fetch(ctx, indicatorID, spec.Countries, spec.Years)
	if err != nil {
		return domain.ObservationTable{}, stats, stageErr(StageFetch, indicatorID, err)
	}
	stats.Fetched = len(raw)
	if len(raw) == 0 {
		return domain.ObservationTable{}, stats, stageErr(StageFetch, indicatorID, ErrNoObservations)
	}
	r.logger.InfoContext(ctx, "indicator fetched",
		slog.String("indicator", indicatorID),
		slog.Int("observations", len(raw)))

	r.report(StageNormalize, baseProgress+20, fmt.Sprintf("normalizing %s", field))
	normalized := Normalize(raw, field)
	stats.Kept = len(normalized.Table.Rows)
	stats.Dropped = normalized.Dropped
	if dropped := normalized.DroppedTotal(); dropped > 0 {
		r.logger.WarnContext(ctx, "observations dropped during normalization",
			slog.String("indicator", indicatorID),
			slog.Int("dropped", dropped),
			slog.Int("kept", stats.Kept))
	}
	if stats.Kept == 0 {
		return domain.ObservationTable{}, stats, stageErr(StageNormalize, indicatorID, ErrNoObservations)
	}

	return normalized.Table, stats, nil
}

func (r *Runner) report(stage string, progress float64, message string) {
	if r.progress != nil {
		r.progress(ProgressUpdate{Stage: stage, Progress: progress, Message: message})
	}
}
