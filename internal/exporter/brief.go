package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"esgcli/internal/pipeline"
	"esgcli/pkg/contracts/domain"
)

// WriteBrief renders a short textual summary of a completed run.
func WriteBrief(w io.Writer, result *pipeline.Result, topN int) error {
	table := &result.Table
	leaders := summarize(table.Rows, domain.CategoryLeader)
	laggards := summarize(table.Rows, domain.CategoryLaggard)

	fmt.Fprintf(w, "ESG Country Efficiency Brief\n")
	fmt.Fprintf(w, "============================\n")
	fmt.Fprintf(w, "Data source:      %s\n", result.Source)
	fmt.Fprintf(w, "Indicators:       %s / %s\n", table.FieldA, table.FieldB)
	fmt.Fprintf(w, "Countries:        %d\n", len(table.Rows))
	fmt.Fprintf(w, "Median ratio:     %s\n\n", formatRatio(table.Median))

	fmt.Fprintf(w, "Leaders  (%d): mean ratio %s, best %s\n",
		leaders.Count, formatRatio(leaders.MeanRatio), formatRatio(leaders.MinRatio))
	fmt.Fprintf(w, "Laggards (%d): mean ratio %s, worst %s\n\n",
		laggards.Count, formatRatio(laggards.MeanRatio), formatRatio(laggards.MaxRatio))

	fmt.Fprintf(w, "Top performers:\n")
	for i, row := range topPerformers(table.Rows, topN) {
		fmt.Fprintf(w, "  %2d. %-20s %s  ratio %s\n", i+1, row.CountryName, row.CountryCode, formatRatio(row.Ratio))
	}
	return nil
}

// SaveBrief writes the brief to a file under dir and returns its path.
func SaveBrief(dir, filename string, result *pipeline.Result, topN int) (string, error) {
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if err := WriteBrief(file, result, topN); err != nil {
		return "", err
	}
	return path, nil
}
