package export

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// SheetName is the worksheet that holds exported entries.
const SheetName = "Audit"

// XLSXExporter exports audit entries to an Excel workbook for reviewers.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export writes entries to w as a single-sheet workbook with a header row.
func (e *XLSXExporter) Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return audit.NewExportError("xlsx", len(entries), err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return audit.NewExportError("xlsx", len(entries), err)
	}

	if err := sw.SetRow("A1", toCells(columns)); err != nil {
		return audit.NewExportError("xlsx", len(entries), err)
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return audit.NewExportError("xlsx", len(entries), err)
		}
		if err := sw.SetRow(cell, toCells(flatten(entry))); err != nil {
			return audit.NewExportError("xlsx", len(entries), err)
		}
	}

	if err := sw.Flush(); err != nil {
		return audit.NewExportError("xlsx", len(entries), err)
	}
	if err := f.Write(w); err != nil {
		return audit.NewExportError("xlsx", len(entries), err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
