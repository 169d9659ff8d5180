package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"finpanel/internal/config"
	"finpanel/pkg/contracts/domain"
)

// Format is a panel export format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the HTTP media type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns base.<format>
func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// PanelHeaders returns the export column names in order
func PanelHeaders() []string {
	return append([]string(nil), domain.PanelColumns...)
}

// PanelRecord renders one row in PanelColumns order. Numbers are raw;
// missing values are empty cells.
func PanelRecord(r domain.PanelRow) []string {
	record := make([]string, 0, len(domain.PanelColumns))
	for _, col := range domain.PanelColumns {
		switch col {
		case "sector":
			record = append(record, r.Sector)
		case "company":
			record = append(record, r.Company)
		case "ticker":
			record = append(record, r.Ticker)
		case "Year":
			record = append(record, strconv.Itoa(r.Year))
		case "Quarter":
			record = append(record, strconv.Itoa(r.Quarter))
		case "period_end":
			record = append(record, r.PeriodEnd.Format(domain.PeriodEndLayout))
		default:
			v, _ := r.Metric(col)
			record = append(record, formatFloat(v))
		}
	}
	return record
}

// WritePanelCSV writes rows as a UTF-8 CSV with BOM
func WritePanelCSV(w io.Writer, rows []domain.PanelRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = PanelRecord(r)
	}
	return WriteCSVTo(w, WriteOptions{
		Headers:   PanelHeaders(),
		Records:   records,
		BOMPrefix: true,
	})
}

// WritePanel writes rows in the given format
func WritePanel(w io.Writer, format Format, rows []domain.PanelRow) error {
	switch format {
	case FormatCSV:
		return WritePanelCSV(w, rows)
	case FormatXLSX:
		return WritePanelXLSX(w, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// PanelExporter writes panel exports to disk
type PanelExporter struct {
	csv    *CSVWriter
	paths  *config.Paths
	logger *slog.Logger
}

// NewPanelExporter creates an exporter writing relative paths into the
// reports directory
func NewPanelExporter(paths *config.Paths, logger *slog.Logger) *PanelExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "exporter")
	return &PanelExporter{
		csv:    NewCSVWriter(paths, logger),
		paths:  paths,
		logger: logger,
	}
}

// Export writes rows to filePath and returns the resolved path
func (e *PanelExporter) Export(filePath string, format Format, rows []domain.PanelRow) (string, error) {
	fullPath := e.csv.resolvePath(filePath)

	switch format {
	case FormatCSV:
		records := make([][]string, len(rows))
		for i, r := range rows {
			records[i] = PanelRecord(r)
		}
		err := e.csv.WriteCSV(fullPath, WriteOptions{
			Headers:   PanelHeaders(),
			Records:   records,
			BOMPrefix: true,
		})
		return fullPath, err
	case FormatXLSX:
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		file, err := os.Create(fullPath)
		if err != nil {
			return "", fmt.Errorf("failed to open file: %w", err)
		}
		if err := WritePanelXLSX(file, rows); err != nil {
			file.Close()
			return "", err
		}
		e.logger.Info("Wrote XLSX panel",
			slog.String("full_path", fullPath),
			slog.Int("row_count", len(rows)))
		return fullPath, file.Close()
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}
