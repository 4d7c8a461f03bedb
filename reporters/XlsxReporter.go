package reporters

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/secscanner/core"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultXlsxReport = "scan_results.xlsx"
	SummarySheet      = "Summary"
	FindingsSheet     = "Findings"
)

var (
	summaryHeaders  = []string{"Scan Id", "Repository", "Branch", "Timestamp", "Status", "Critical", "High", "Medium", "Low", "Info", "Total"}
	findingsHeaders = []string{"Scan Id", "Repository", "Finding Id", "Severity", "Title", "Description", "Location", "Recommendation", "Created At"}
)

// XlsxReporter writes one Summary row per result and one Findings row per finding.
type XlsxReporter struct {
	OutputDir string
	Filename  string
}

func (x XlsxReporter) Path() string {
	dir := x.OutputDir
	if dir == "" {
		dir = "."
	}
	name := x.Filename
	if name == "" {
		name = DefaultXlsxReport
	}
	return filepath.Join(dir, name)
}

func (x XlsxReporter) Report(results []core.ScanResult) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet %q: %w", defaultSheet, err)
	}
	if _, err := f.NewSheet(FindingsSheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", FindingsSheet, err)
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeaders); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", SummarySheet, err)
	}
	if err := f.SetSheetRow(FindingsSheet, "A1", &findingsHeaders); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", FindingsSheet, err)
	}

	findingRow := 2
	for i, result := range results {
		row := []interface{}{
			result.Id,
			result.Repository,
			result.Branch,
			result.Timestamp,
			string(result.Status),
			result.Summary.Critical,
			result.Summary.High,
			result.Summary.Medium,
			result.Summary.Low,
			result.Summary.Info,
			result.Summary.Total(),
		}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}

		for _, finding := range result.Findings {
			row := []interface{}{
				result.Id,
				result.Repository,
				finding.Id,
				string(finding.Severity),
				finding.Title,
				finding.Description,
				finding.Location,
				finding.Recommendation,
				finding.CreatedAt,
			}
			if err := setRow(f, FindingsSheet, findingRow, row); err != nil {
				return err
			}
			findingRow++
		}
	}

	outputPath := x.Path()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save XLSX file '%s': %w", outputPath, err)
	}

	log.Printf("XLSX report generated successfully: %s", outputPath)
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to get cell address for row %d in sheet '%s': %w", rowNum, sheet, err)
	}
	if err := f.SetSheetRow(sheet, cellAddress, &row); err != nil {
		return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", rowNum, sheet, err)
	}
	return nil
}
