package sheets

import "context"

// Writer is the outbound port to a spreadsheet backend.
type Writer interface {
	// ReplaceRows overwrites the whole content of sheet, creating it if needed.
	ReplaceRows(ctx context.Context, sheet string, rows [][]any) error
}
