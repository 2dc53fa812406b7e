package sheets

import (
	"context"

	"taxis/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// RollupWriter replaces the contents of a spreadsheet tab with the
	// multi-destination rollup.
	RollupWriter interface {
		WriteGlobal(ctx context.Context, reports []core.Report) error
	}
)
