// Package exporter renders the classified country table for human
// consumption: CSV, an Excel workbook with summary sheets, and a textual
// brief. Exporters only aggregate and present the table handed to them;
// they never recompute ratios or categories.
package exporter
