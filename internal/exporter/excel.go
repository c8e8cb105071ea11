package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"esgcli/pkg/contracts/domain"
)

// Sheet names in the exported workbook.
const (
	SheetData    = "ESG Data"
	SheetSummary = "Category Summary"
	SheetTop     = "Top Performers"
)

// ExcelWriter builds the analysis workbook: the full classified table, a
// per-category summary, and a top-performer slice.
type ExcelWriter struct {
	dir    string
	topN   int
	logger *slog.Logger
}

// NewExcelWriter creates a workbook writer rooted at dir. topN bounds the
// Top Performers sheet.
func NewExcelWriter(dir string, topN int, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if topN <= 0 {
		topN = 10
	}
	return &ExcelWriter{dir: dir, topN: topN, logger: logger}
}

// WriteWorkbook writes the workbook and returns its path.
func (w *ExcelWriter) WriteWorkbook(filename string, table *domain.ClassifiedTable) (string, error) {
	path := filepath.Join(w.dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetData)
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SheetTop); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	if err := w.writeDataSheet(f, table, headerStyle); err != nil {
		return "", fmt.Errorf("data sheet: %w", err)
	}
	if err := w.writeSummarySheet(f, table, headerStyle); err != nil {
		return "", fmt.Errorf("summary sheet: %w", err)
	}
	if err := w.writeTopSheet(f, table, headerStyle); err != nil {
		return "", fmt.Errorf("top performers sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("workbook exported",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)))
	return path, nil
}

func (w *ExcelWriter) writeDataSheet(f *excelize.File, table *domain.ClassifiedTable, headerStyle int) error {
	if err := writeHeaderRow(f, SheetData, table.Columns(), headerStyle); err != nil {
		return err
	}
	for i, row := range table.Rows {
		values := []any{row.CountryName, row.CountryCode, row.Year, row.ValueA, row.ValueB, row.Ratio, string(row.Category)}
		if err := writeRow(f, SheetData, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetData, "A", "G", 16)
}

func (w *ExcelWriter) writeSummarySheet(f *excelize.File, table *domain.ClassifiedTable, headerStyle int) error {
	headers := []string{"category", "countries", "mean_ratio", "min_ratio", "max_ratio", "mean_" + table.FieldA, "mean_" + table.FieldB}
	if err := writeHeaderRow(f, SheetSummary, headers, headerStyle); err != nil {
		return err
	}

	rowIdx := 2
	for _, category := range []domain.Category{domain.CategoryLeader, domain.CategoryLaggard} {
		stats := summarize(table.Rows, category)
		values := []any{string(category), stats.Count, stats.MeanRatio, stats.MinRatio, stats.MaxRatio, stats.MeanA, stats.MeanB}
		if err := writeRow(f, SheetSummary, rowIdx, values); err != nil {
			return err
		}
		rowIdx++
	}

	if err := writeRow(f, SheetSummary, rowIdx+1, []any{"median_ratio", table.Median}); err != nil {
		return err
	}
	if err := writeRow(f, SheetSummary, rowIdx+2, []any{"generated_at", time.Now().Format(time.RFC3339)}); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "G", 20)
}

func (w *ExcelWriter) writeTopSheet(f *excelize.File, table *domain.ClassifiedTable, headerStyle int) error {
	headers := []string{"rank", "country", "country_code", "ratio", "category"}
	if err := writeHeaderRow(f, SheetTop, headers, headerStyle); err != nil {
		return err
	}
	for i, row := range topPerformers(table.Rows, w.topN) {
		values := []any{i + 1, row.CountryName, row.CountryCode, row.Ratio, string(row.Category)}
		if err := writeRow(f, SheetTop, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetTop, "A", "E", 18)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
