package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"taxis/internal/core"
	"taxis/internal/log"
	"taxis/internal/trips"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps the loaded trip snapshot in a SQLite file so it
// survives restarts. Each Load replaces the whole snapshot.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	cols    core.Columns
	delim   rune
}

func NewSQLiteRepository(dbPath string, cols core.Columns, delim rune) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		cols:    cols.WithDefaults(),
		delim:   delim,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements trips.Loader. The file is parsed before the transaction
// starts, so a parse failure leaves the stored snapshot untouched.
func (r *SQLiteRepository) Load(ctx context.Context, path string) error {
	ds, err := trips.ReadFile(path, r.delim)
	if err != nil {
		return err
	}

	headersJSON, err := json.Marshal(ds.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteTrips(ctx); err != nil {
		return fmt.Errorf("clear trips: %w", err)
	}
	for i, t := range ds.Records {
		fields, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i+1, err)
		}
		if err := q.InsertTrip(ctx, InsertTripParams{
			RowNo:       int64(i),
			Destination: t.Destination(r.cols),
			FieldsJSON:  string(fields),
		}); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := q.UpsertSnapshot(ctx, UpsertSnapshotParams{
		Path:        path,
		HeadersJSON: string(headersJSON),
		LoadedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	log.Wrap(slog.Default(), log.ComponentStorage).InfoContext(ctx, "Snapshot stored in SQLite",
		log.FieldFile, path,
		log.FieldRecords, len(ds.Records),
		"headers", len(ds.Headers))
	return nil
}

// AllRecords implements trips.Reader
func (r *SQLiteRepository) AllRecords(ctx context.Context) ([]core.Trip, error) {
	rows, err := r.queries.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return decodeTrips(rows)
}

// UniqueDestinations implements trips.Reader
func (r *SQLiteRepository) UniqueDestinations(ctx context.Context) ([]string, error) {
	dests, err := r.queries.ListDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	if dests == nil {
		dests = []string{}
	}
	return dests, nil
}

// RecordsForDestination implements trips.Reader
func (r *SQLiteRepository) RecordsForDestination(ctx context.Context, name string) ([]core.Trip, error) {
	rows, err := r.queries.ListTripsByDestination(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", name, err)
	}
	return decodeTrips(rows)
}

// Headers implements trips.Reader. It returns nil before the first load.
func (r *SQLiteRepository) Headers(ctx context.Context) ([]string, error) {
	snap, err := r.queries.GetSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var headers []string
	if err := json.Unmarshal([]byte(snap.HeadersJSON), &headers); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	return headers, nil
}

// SnapshotInfo reports where the stored snapshot came from and its size.
// ok is false when nothing has been loaded yet.
func (r *SQLiteRepository) SnapshotInfo(ctx context.Context) (path string, loadedAt time.Time, records int64, ok bool, err error) {
	snap, err := r.queries.GetSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, 0, false, nil
	}
	if err != nil {
		return "", time.Time{}, 0, false, fmt.Errorf("get snapshot: %w", err)
	}
	count, err := r.queries.CountTrips(ctx)
	if err != nil {
		return "", time.Time{}, 0, false, fmt.Errorf("count trips: %w", err)
	}
	return snap.Path, snap.LoadedAt, count, true, nil
}

func decodeTrips(rows []TripRow) ([]core.Trip, error) {
	out := make([]core.Trip, 0, len(rows))
	for _, row := range rows {
		var t core.Trip
		if err := json.Unmarshal([]byte(row.FieldsJSON), &t); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", row.RowNo+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

var _ trips.Store = (*SQLiteRepository)(nil)
