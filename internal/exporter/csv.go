package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"esgcli/pkg/contracts/domain"
)

// CSVWriter exports classified tables as CSV files under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteClassified writes the full output table in contract column order and
// returns the file's path. A UTF-8 BOM is prepended so Excel opens the file
// correctly.
func (w *CSVWriter) WriteClassified(filename string, table *domain.ClassifiedTable) (string, error) {
	path := filepath.Join(w.dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns()); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		record := []string{
			row.CountryName,
			row.CountryCode,
			formatInt(row.Year),
			formatValue(row.ValueA),
			formatValue(row.ValueB),
			formatRatio(row.Ratio),
			string(row.Category),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	w.logger.Info("classified table exported",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)))
	return path, nil
}
