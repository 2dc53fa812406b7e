package memory

import (
	"context"
	"sync"

	"taxis/internal/core"
	"taxis/internal/trips"
)

// Store keeps the loaded snapshot in memory. It is replaced wholesale on
// every successful Load.
type Store struct {
	cols  core.Columns
	delim rune

	mu      sync.RWMutex
	path    string
	headers []string
	items   []core.Trip
	dests   []string
}

func New(cols core.Columns, delim rune) *Store {
	return &Store{cols: cols.WithDefaults(), delim: delim}
}

// NewFromRecords builds a store already holding records, for tests and
// one-shot tools.
func NewFromRecords(cols core.Columns, headers []string, records []core.Trip) *Store {
	s := New(cols, 0)
	s.replace("", &trips.Dataset{Headers: headers, Records: records})
	return s
}

// Load parses the file at path and swaps it in. On error the previous
// snapshot is kept.
func (s *Store) Load(_ context.Context, path string) error {
	ds, err := trips.ReadFile(path, s.delim)
	if err != nil {
		return err
	}
	s.replace(path, ds)
	return nil
}

func (s *Store) replace(path string, ds *trips.Dataset) {
	dests := trips.Destinations(s.cols, ds.Records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.headers = ds.Headers
	s.items = ds.Records
	s.dests = dests
}

// Path returns the file the current snapshot was loaded from.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *Store) AllRecords(_ context.Context) ([]core.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Trip(nil), s.items...), nil
}

func (s *Store) UniqueDestinations(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.dests...), nil
}

func (s *Store) RecordsForDestination(_ context.Context, name string) ([]core.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trips.Filter(s.cols, s.items, name), nil
}

func (s *Store) Headers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.headers...), nil
}

var _ trips.Store = (*Store)(nil)
