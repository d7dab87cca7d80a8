package export

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// CSVExporter exports audit entries to CSV, one flattened row per entry.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes entries to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(columns); err != nil {
			return audit.NewExportError("csv", len(entries), err)
		}
	}

	for _, entry := range entries {
		if err := writer.Write(flatten(entry)); err != nil {
			return audit.NewExportError("csv", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(entries), err)
	}
	return nil
}

// ExportStream exports entries from a channel to CSV, flushing every 100
// rows.
func (e *CSVExporter) ExportStream(ctx context.Context, entriesCh <-chan *audit.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(columns); err != nil {
			return audit.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case entry, ok := <-entriesCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(flatten(entry)); err != nil {
				return audit.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
			}
		}
	}
}
