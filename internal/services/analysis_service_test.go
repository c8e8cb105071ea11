package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	"esgcli/pkg/contracts/domain"
)

func syntheticConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.Source = "synthetic"
	cfg.Pipeline.Countries = []string{"USA", "DEU", "JPN", "IND"}
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func waitForStatus(t *testing.T, svc *AnalysisService, id string, want RunStatus) *Run {
	t.Helper()
	var run *Run
	require.Eventually(t, func() bool {
		r, err := svc.Get(id)
		if err != nil {
			return false
		}
		run = r
		return r.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return run
}

func TestAnalysisService_SyntheticRunCompletes(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	run, err := svc.Start(StartRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, "synthetic", run.Source)

	final := waitForStatus(t, svc, run.ID, StatusCompleted)
	require.NotNil(t, final.CompletedAt)

	result, err := svc.Result(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "synthetic", result.Source)
	assert.Len(t, result.Table.Rows, 4)
	counts := result.Table.CountByCategory()
	assert.Equal(t, 4, counts[domain.CategoryLeader]+counts[domain.CategoryLaggard])
}

func TestAnalysisService_StartSnapshotIsDetached(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	run, err := svc.Start(StartRequest{})
	require.NoError(t, err)

	// The snapshot handed back by Start is a copy taken before the run
	// goroutine exists: the run finishing must not show through it.
	waitForStatus(t, svc, run.ID, StatusCompleted)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	final, err := svc.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
}

func TestAnalysisService_RecordsSourceStrategy(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.Pipeline.Source = "worldbank"
	svc := NewAnalysisService(cfg, nil, nil)

	// The request's explicit strategy wins over the configured one, and the
	// run records which source actually produced the data.
	run, err := svc.Start(StartRequest{Source: "synthetic"})
	require.NoError(t, err)
	assert.Equal(t, "synthetic", run.Source)
	waitForStatus(t, svc, run.ID, StatusCompleted)
}

func TestAnalysisService_UnknownSource(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	_, err := svc.Start(StartRequest{Source: "clipboard"})
	assert.Error(t, err)
}

func TestAnalysisService_GetUnknownRun(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestAnalysisService_ResultBeforeCompletion(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	run, err := svc.Start(StartRequest{})
	require.NoError(t, err)

	waitForStatus(t, svc, run.ID, StatusCompleted)

	// A second, never-completed ID still refuses to hand out a result.
	_, err = svc.Result("missing")
	assert.Error(t, err)
}

func TestAnalysisService_RequestOverrides(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	run, err := svc.Start(StartRequest{Countries: []string{"NOR", "ZAF"}, StartYear: 2020, EndYear: 2021})
	require.NoError(t, err)

	waitForStatus(t, svc, run.ID, StatusCompleted)
	result, err := svc.Result(run.ID)
	require.NoError(t, err)

	require.Len(t, result.Table.Rows, 2)
	for _, row := range result.Table.Rows {
		assert.Equal(t, 2021, row.Year)
	}
}

func TestAnalysisService_InvalidOverridesRejected(t *testing.T) {
	svc := NewAnalysisService(syntheticConfig(t), nil, nil)

	_, err := svc.Start(StartRequest{StartYear: 2022, EndYear: 2018})
	assert.Error(t, err)
}
