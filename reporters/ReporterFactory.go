package reporters

import (
	"fmt"
	"io"

	"github.com/reaandrew/secscanner/core"
)

func CreateReporter(reportFormat, outputDir string, w io.Writer) (core.Reporter, error) {
	switch reportFormat {
	case "", "console":
		return ConsoleReporter{Writer: w}, nil
	case "json":
		return JsonReporter{OutputDir: outputDir}, nil
	case "xlsx":
		return XlsxReporter{OutputDir: outputDir}, nil
	}

	return nil, fmt.Errorf("unknown report format: %s", reportFormat)
}
