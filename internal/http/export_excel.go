package httpapi

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"soundpost-data/internal/domain"
)

// eventExportHeader is the column order of the events workbook.
var eventExportHeader = []string{
	"ID",
	"Device ID",
	"Timestamp (UTC)",
	"Label",
	"Confidence",
	"Duration (ms)",
	"Created At (UTC)",
}

// generateEventExport renders the filtered event listing as an .xlsx
// workbook with a styled, frozen header row.
func generateEventExport(events []*domain.AudioEvent) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Events"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range eventExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(eventExportHeader), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "G", 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, e := range events {
		row := i + 2
		values := []any{
			e.ID,
			e.DeviceID,
			e.TS.UTC().Format("2006-01-02 15:04:05"),
			e.Label,
			e.Confidence,
			nil,
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if e.DurationMS != nil {
			values[5] = *e.DurationMS
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("data cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write data cell: %w", err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
