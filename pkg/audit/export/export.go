package export

import (
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv", "xlsx"}

// New returns the exporter for a format name.
func New(format string, pretty bool) (audit.Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q (supported: json, csv, xlsx)", format)
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	return "." + format
}
