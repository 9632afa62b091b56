package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"sourcing-backend/internal/decision"
)

// XLSX writes rows into a single-sheet Excel workbook.
type XLSX struct{}

// NewXLSX constructs the spreadsheet exporter.
func NewXLSX() *XLSX {
	return &XLSX{}
}

// Export renders a header row followed by one row per input.
func (x *XLSX) Export(ctx context.Context, rows []Row) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	withResult, err := resultShaped(rows)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := Headers(withResult)
	for col, h := range headers {
		if err := setCell(f, col+1, 1, h); err != nil {
			return nil, err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	fields := decision.Fields()
	for i, r := range rows {
		rowNum := i + 2
		for col, field := range fields {
			if err := setCell(f, col+1, rowNum, r.Answers.Get(field)); err != nil {
				return nil, err
			}
		}
		if withResult {
			if err := setCell(f, len(fields)+1, rowNum, string(r.Outcome)); err != nil {
				return nil, err
			}
			if err := setCell(f, len(fields)+2, rowNum, r.Timestamp.UTC().Format(time.RFC3339)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Result{
		Data:     buf.Bytes(),
		Filename: DefaultFilename,
		MimeType: MimeTypeXLSX,
	}, nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

var _ Exporter = (*XLSX)(nil)
