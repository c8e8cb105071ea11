package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"esgcli/internal/pipeline"
	"esgcli/pkg/contracts/domain"
)

func classifiedRow(name, code string, year int, a, b, ratio float64, category domain.Category) domain.ClassifiedRecord {
	return domain.ClassifiedRecord{
		MergedRecord: domain.MergedRecord{
			CountryName: name, CountryCode: code, Year: year,
			ValueA: a, ValueB: b, Ratio: ratio,
		},
		Category: category,
	}
}

func testTable() *domain.ClassifiedTable {
	return &domain.ClassifiedTable{
		FieldA: "co2_per_capita",
		FieldB: "gdp_per_capita",
		Median: 0.18,
		Rows: []domain.ClassifiedRecord{
			classifiedRow("Norway", "NOR", 2022, 7.5, 89154, 0.0841, domain.CategoryLeader),
			classifiedRow("Germany", "DEU", 2022, 7.9, 51203, 0.1543, domain.CategoryLeader),
			classifiedRow("United States", "USA", 2022, 14.9, 76399, 0.1950, domain.CategoryLaggard),
			classifiedRow("South Africa", "ZAF", 2022, 6.7, 6776, 0.9888, domain.CategoryLaggard),
		},
	}
}

func TestCSVWriter_WriteClassified(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	path, err := writer.WriteClassified("esg_classified.csv", testTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "esg_classified.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// UTF-8 BOM for Excel, then the contract header.
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 5)
	assert.Equal(t, []string{"country", "country_code", "year", "co2_per_capita", "gdp_per_capita", "ratio", "category"}, records[0])
	assert.Equal(t, []string{"Norway", "NOR", "2022", "7.50", "89154.00", "0.0841", "Leader"}, records[1])
	assert.Equal(t, "Laggard", records[4][6])
}

func TestExcelWriter_WriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	writer := NewExcelWriter(dir, 3, nil)

	path, err := writer.WriteWorkbook("esg_analysis.xlsx", testTable())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetData, SheetSummary, SheetTop}, f.GetSheetList())

	// Data sheet: header plus all four countries.
	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"country", "country_code", "year", "co2_per_capita", "gdp_per_capita", "ratio", "category"}, rows[0])
	assert.Equal(t, "Norway", rows[1][0])

	// Summary sheet: one row per category with counts.
	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(summary), 3)
	assert.Equal(t, "Leader", summary[1][0])
	assert.Equal(t, "2", summary[1][1])
	assert.Equal(t, "Laggard", summary[2][0])
	assert.Equal(t, "2", summary[2][1])

	// Top sheet honors topN and ranks by ascending ratio.
	top, err := f.GetRows(SheetTop)
	require.NoError(t, err)
	require.Len(t, top, 4)
	assert.Equal(t, "NOR", top[1][2])
	assert.Equal(t, "DEU", top[2][2])
	assert.Equal(t, "USA", top[3][2])
}

func TestWriteBrief(t *testing.T) {
	result := &pipeline.Result{Table: *testTable(), Source: "synthetic"}

	var buf strings.Builder
	require.NoError(t, WriteBrief(&buf, result, 2))
	brief := buf.String()

	assert.Contains(t, brief, "Data source:      synthetic")
	assert.Contains(t, brief, "Leaders  (2)")
	assert.Contains(t, brief, "Laggards (2)")
	assert.Contains(t, brief, "Norway")
	// topN = 2 cuts the list before the laggards.
	assert.NotContains(t, brief, "South Africa")
}

func TestSaveBrief(t *testing.T) {
	dir := t.TempDir()
	result := &pipeline.Result{Table: *testTable(), Source: "worldbank"}

	path, err := SaveBrief(dir, "brief.txt", result, 10)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ESG Country Efficiency Brief")
	assert.Contains(t, string(data), "worldbank")
}

func TestTopPerformers_StableOrderOnTies(t *testing.T) {
	rows := []domain.ClassifiedRecord{
		classifiedRow("B Country", "BBB", 2022, 1, 1000, 0.5, domain.CategoryLeader),
		classifiedRow("A Country", "AAA", 2022, 1, 1000, 0.5, domain.CategoryLeader),
	}

	top := topPerformers(rows, 2)

	assert.Equal(t, "AAA", top[0].CountryCode)
	assert.Equal(t, "BBB", top[1].CountryCode)
}

func TestSummarize_EmptyCategory(t *testing.T) {
	stats := summarize(nil, domain.CategoryLeader)

	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.MeanRatio)
}
