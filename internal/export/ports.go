package export

import (
	"context"
)

// Row is one record flattened for the spreadsheet mirror. Amount is in
// currency units, not cents, because the sheet holds human-readable figures.
type Row struct {
	Date      string
	Ledger    string
	Member    string
	Direction string
	Category  string
	Amount    float64
	Note      string
}

// Ports for outbound adapters.
type (
	// RowAppender mirrors a record row to an external sheet and returns a
	// reference to the written range.
	RowAppender interface {
		Append(ctx context.Context, row Row) (rowRef string, err error)
	}
)
