// Package export renders decision rows into downloadable spreadsheet documents.
package export

import (
	"context"
	"errors"
	"time"

	"sourcing-backend/internal/decision"
)

const (
	// DefaultFilename is the name clients save the workbook under.
	DefaultFilename = "sourcing_decisions.xlsx"
	// SheetName is the single worksheet in every workbook.
	SheetName = "Sourcing Decisions"

	MimeTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrMixedRows is returned when registry-shaped and result-shaped rows are exported together.
var ErrMixedRows = errors.New("export rows mix registry and result shapes")

// Row is one exported line. Registry rows leave HasResult false and carry no outcome or timestamp.
type Row struct {
	Answers   decision.Answers
	HasResult bool
	Outcome   decision.Outcome
	Timestamp time.Time
}

// Result contains the rendered document.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Exporter turns rows into a document.
type Exporter interface {
	Export(ctx context.Context, rows []Row) (*Result, error)
}

// Headers returns the column keys for the given row shape.
func Headers(withResult bool) []string {
	fields := decision.Fields()
	out := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, f.Key())
	}
	if withResult {
		out = append(out, "outcome", "timestamp")
	}
	return out
}

func resultShaped(rows []Row) (bool, error) {
	if len(rows) == 0 {
		return false, nil
	}
	shape := rows[0].HasResult
	for _, r := range rows[1:] {
		if r.HasResult != shape {
			return false, ErrMixedRows
		}
	}
	return shape, nil
}
