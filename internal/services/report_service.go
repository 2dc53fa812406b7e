package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taxis/internal/core"
	"taxis/internal/log"
	"taxis/internal/observability/metrics"
	"taxis/internal/trips"
)

// ErrNoData is returned when a destination has no trips to aggregate.
var ErrNoData = errors.New("no trips for destination")

// ReportService builds metrics reports from the loaded trip snapshot.
type ReportService struct {
	store  trips.Reader
	cols   core.Columns
	events *log.StructuredLogger
}

func NewReportService(store trips.Reader, cols core.Columns) *ReportService {
	return &ReportService{
		store:  store,
		cols:   cols.WithDefaults(),
		events: log.NewStructuredLogger(log.Wrap(slog.Default(), log.ComponentReport)),
	}
}

// Destinations lists the destination zones of the snapshot in ascending order.
func (s *ReportService) Destinations(ctx context.Context) ([]string, error) {
	dests, err := s.store.UniqueDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return dests, nil
}

// ForDestination aggregates the trips ending in name.
func (s *ReportService) ForDestination(ctx context.Context, name string) (*core.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.store.RecordsForDestination(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("records for %q: %w", name, err)
	}
	r := s.aggregate(records)
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoData, name)
	}
	labelled := r.WithDestination(name)
	s.events.LogReportBuilt(ctx, name, labelled.Totals.Trips)
	return &labelled, nil
}

// Rollup aggregates every destination, in destination order. Destinations
// without records or without a report are left out.
func (s *ReportService) Rollup(ctx context.Context) ([]core.Report, error) {
	dests, err := s.Destinations(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]core.Report, 0, len(dests))
	tripsTotal := 0
	for _, name := range dests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.store.RecordsForDestination(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("records for %q: %w", name, err)
		}
		if len(records) == 0 {
			continue
		}
		r := s.aggregate(records)
		if r == nil {
			continue
		}
		reports = append(reports, r.WithDestination(name))
		tripsTotal += r.Totals.Trips
	}

	s.events.LogReportBuilt(ctx, "", tripsTotal)
	return reports, nil
}

func (s *ReportService) aggregate(records []core.Trip) *core.Report {
	start := time.Now()
	r := core.AggregateWith(s.cols, records)
	metrics.ObserveAggregation(r == nil, time.Since(start))
	return r
}
