package trips

import (
	"context"
	"errors"

	"taxis/internal/core"
)

// ErrNotFound is returned by Load when the data file does not exist.
var ErrNotFound = errors.New("data file not found")

// ErrInvalidEncoding is returned when the data file is not valid UTF-8.
var ErrInvalidEncoding = errors.New("data file is not valid UTF-8")

// Ports for the loaded trip snapshot.
type (
	Loader interface {
		// Load parses the file at path and replaces the current snapshot.
		Load(ctx context.Context, path string) error
	}

	Reader interface {
		AllRecords(ctx context.Context) ([]core.Trip, error)
		// UniqueDestinations returns the distinct non-empty destination zones, ascending.
		UniqueDestinations(ctx context.Context) ([]string, error)
		// RecordsForDestination returns the trips whose destination equals name, in file order.
		RecordsForDestination(ctx context.Context, name string) ([]core.Trip, error)
		Headers(ctx context.Context) ([]string, error)
	}

	// Store is a full record store.
	Store interface {
		Loader
		Reader
	}
)
