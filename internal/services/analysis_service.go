// Package services runs analysis invocations off the request path and
// tracks their lifecycle for the HTTP surface.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"esgcli/internal/config"
	"esgcli/internal/exporter"
	"esgcli/internal/infrastructure"
	"esgcli/internal/pipeline"
	"esgcli/internal/synthetic"
	"esgcli/internal/websocket"
	"esgcli/internal/worldbank"
)

// RunStatus is the lifecycle state of one analysis run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// ErrRunActive is returned when a run is requested while another is still
// in flight. The pipeline is single-flight per process.
var ErrRunActive = errors.New("an analysis run is already in progress")

// ErrRunNotFound is returned for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is a snapshot of one analysis invocation.
type Run struct {
	ID          string           `json:"id"`
	Status      RunStatus        `json:"status"`
	Source      string           `json:"source"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Error       string           `json:"error,omitempty"`
	Result      *pipeline.Result `json:"-"`
}

// StartRequest optionally overrides the configured run parameters.
type StartRequest struct {
	Source    string   `json:"source,omitempty"`
	Countries []string `json:"countries,omitempty"`
	StartYear int      `json:"start_year,omitempty"`
	EndYear   int      `json:"end_year,omitempty"`
	Export    bool     `json:"export,omitempty"`
}

// AnalysisService owns run execution: it builds the observation source,
// runs the pipeline on its own goroutine, streams progress to the hub, and
// optionally exports the result table.
type AnalysisService struct {
	cfg    *config.Config
	logger *slog.Logger
	hub    *websocket.Hub

	mu       sync.RWMutex
	runs     map[string]*Run
	activeID string
}

// NewAnalysisService creates the service. hub may be nil when no front end
// is attached (CLI use).
func NewAnalysisService(cfg *config.Config, logger *slog.Logger, hub *websocket.Hub) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		cfg:    cfg,
		logger: logger,
		hub:    hub,
		runs:   make(map[string]*Run),
	}
}

// BuildSource constructs the observation source strategy named by kind.
func BuildSource(cfg *config.Config, kind string, logger *slog.Logger) (pipeline.ObservationSource, error) {
	switch kind {
	case "worldbank":
		return worldbank.NewClient(
			worldbank.WithBaseURL(cfg.Pipeline.BaseURL),
			worldbank.WithTimeout(cfg.Pipeline.FetchTimeout),
			worldbank.WithConcurrency(cfg.Pipeline.FetchConcurrency),
			worldbank.WithRateLimit(cfg.Pipeline.RateLimitRPS, cfg.Pipeline.RateLimitBurst),
			worldbank.WithLogger(logger),
		), nil
	case "synthetic":
		return synthetic.NewGenerator(cfg.Pipeline.SyntheticSeed), nil
	default:
		return nil, fmt.Errorf("unknown observation source %q", kind)
	}
}

// Start launches a run and returns its initial snapshot. Only one run may
// be active at a time.
func (s *AnalysisService) Start(req StartRequest) (*Run, error) {
	spec := s.specFor(req)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	kind := req.Source
	if kind == "" {
		kind = s.cfg.Pipeline.Source
	}
	source, err := BuildSource(s.cfg, kind, s.logger)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeID != "" {
		s.mu.Unlock()
		return nil, ErrRunActive
	}
	run := &Run{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Source:    source.Kind(),
		StartedAt: time.Now(),
	}
	s.runs[run.ID] = run
	s.activeID = run.ID
	s.mu.Unlock()

	// Copy before the run goroutine exists; execute mutates *run under s.mu.
	snapshot := *run
	go s.execute(run.ID, source, spec, req.Export)

	return &snapshot, nil
}

// execute is the run goroutine: the whole pipeline invocation happens here,
// off the interaction path. Communication outward is the progress stream
// and the final state swap, nothing shared.
func (s *AnalysisService) execute(runID string, source pipeline.ObservationSource, spec pipeline.Spec, export bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Pipeline.RunTimeout)
	defer cancel()
	ctx = infrastructure.WithTraceID(ctx, runID)

	runner := pipeline.NewRunner(source, s.logger, pipeline.WithProgress(func(u pipeline.ProgressUpdate) {
		if s.hub != nil {
			s.hub.BroadcastProgress(runID, u)
		}
	}))

	result, err := runner.Run(ctx, spec)
	now := time.Now()

	s.mu.Lock()
	run := s.runs[runID]
	run.CompletedAt = &now
	s.activeID = ""
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusCompleted
		run.Result = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "analysis run failed", slog.String("error", err.Error()))
		if s.hub != nil {
			s.hub.Broadcast(websocket.Message{
				Type: websocket.TypeError, Level: websocket.LevelError,
				Text: err.Error(), RunID: runID,
			})
		}
		return
	}

	if export {
		s.exportResult(ctx, runID, result)
	}
	if s.hub != nil {
		s.hub.Broadcast(websocket.Message{
			Type: websocket.TypeComplete, Level: websocket.LevelSuccess,
			Text:  fmt.Sprintf("classified %d countries, median ratio %.4f", len(result.Table.Rows), result.Table.Median),
			RunID: runID,
		})
	}
}

func (s *AnalysisService) exportResult(ctx context.Context, runID string, result *pipeline.Result) {
	dir := s.cfg.Export.Dir
	topN := s.cfg.Export.TopN

	if _, err := exporter.NewCSVWriter(dir, s.logger).WriteClassified("esg_classified.csv", &result.Table); err != nil {
		s.logger.ErrorContext(ctx, "csv export failed", slog.String("error", err.Error()))
	}
	if _, err := exporter.NewExcelWriter(dir, topN, s.logger).WriteWorkbook("esg_analysis.xlsx", &result.Table); err != nil {
		s.logger.ErrorContext(ctx, "workbook export failed", slog.String("error", err.Error()))
	}
	if _, err := exporter.SaveBrief(dir, "esg_brief.txt", result, topN); err != nil {
		s.logger.ErrorContext(ctx, "brief export failed", slog.String("error", err.Error()))
	}
	if s.hub != nil {
		s.hub.BroadcastLog(runID, websocket.LevelInfo, fmt.Sprintf("reports written to %s", dir))
	}
}

// specFor merges request overrides onto the configured pipeline parameters.
func (s *AnalysisService) specFor(req StartRequest) pipeline.Spec {
	p := s.cfg.Pipeline
	spec := pipeline.Spec{
		IndicatorA: p.IndicatorA,
		IndicatorB: p.IndicatorB,
		FieldA:     p.FieldA,
		FieldB:     p.FieldB,
		Countries:  append([]string(nil), p.Countries...),
		Years:      pipeline.YearRange{Start: p.StartYear, End: p.EndYear},
	}
	if len(req.Countries) > 0 {
		spec.Countries = req.Countries
	}
	if req.StartYear > 0 {
		spec.Years.Start = req.StartYear
	}
	if req.EndYear > 0 {
		spec.Years.End = req.EndYear
	}
	return spec
}

// Get returns a snapshot of the run with the given ID.
func (s *AnalysisService) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	snapshot := *run
	return &snapshot, nil
}

// Result returns the completed run's pipeline result.
func (s *AnalysisService) Result(id string) (*pipeline.Result, error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusCompleted || run.Result == nil {
		return nil, fmt.Errorf("run %s has no result (status %s)", id, run.Status)
	}
	return run.Result, nil
}
