package reporters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/secscanner/core"
	log "github.com/sirupsen/logrus"
)

const DefaultJsonReport = "scan_results.json"

type JsonReporter struct {
	OutputDir string
	Filename  string
}

func (j JsonReporter) Path() string {
	dir := j.OutputDir
	if dir == "" {
		dir = "."
	}
	name := j.Filename
	if name == "" {
		name = DefaultJsonReport
	}
	return filepath.Join(dir, name)
}

// Report writes results as an indented JSON array. An empty input still
// produces a valid file containing [].
func (j JsonReporter) Report(results []core.ScanResult) error {
	if results == nil {
		results = []core.ScanResult{}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan results: %w", err)
	}

	outputPath := j.Path()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report %s: %w", outputPath, err)
	}

	log.Printf("JSON report generated successfully: %s", outputPath)
	return nil
}
