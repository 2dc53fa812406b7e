package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TripRow struct {
	RowNo       int64
	Destination string
	FieldsJSON  string
}

type Snapshot struct {
	Path        string
	HeadersJSON string
	LoadedAt    time.Time
}

const deleteTrips = `DELETE FROM trips`

func (q *Queries) DeleteTrips(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteTrips)
	return err
}

const insertTrip = `INSERT INTO trips (row_no, destination, fields_json) VALUES (?, ?, ?)`

type InsertTripParams struct {
	RowNo       int64
	Destination string
	FieldsJSON  string
}

func (q *Queries) InsertTrip(ctx context.Context, arg InsertTripParams) error {
	_, err := q.db.ExecContext(ctx, insertTrip, arg.RowNo, arg.Destination, arg.FieldsJSON)
	return err
}

const upsertSnapshot = `INSERT INTO snapshot (id, path, headers_json, loaded_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET path = excluded.path, headers_json = excluded.headers_json, loaded_at = excluded.loaded_at`

type UpsertSnapshotParams struct {
	Path        string
	HeadersJSON string
	LoadedAt    time.Time
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, arg.Path, arg.HeadersJSON, arg.LoadedAt)
	return err
}

const getSnapshot = `SELECT path, headers_json, loaded_at FROM snapshot WHERE id = 1`

func (q *Queries) GetSnapshot(ctx context.Context) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot)
	var s Snapshot
	err := row.Scan(&s.Path, &s.HeadersJSON, &s.LoadedAt)
	return s, err
}

const listTrips = `SELECT row_no, destination, fields_json FROM trips ORDER BY row_no`

func (q *Queries) ListTrips(ctx context.Context) ([]TripRow, error) {
	return q.queryTrips(ctx, listTrips)
}

const listTripsByDestination = `SELECT row_no, destination, fields_json FROM trips WHERE destination = ? ORDER BY row_no`

func (q *Queries) ListTripsByDestination(ctx context.Context, destination string) ([]TripRow, error) {
	return q.queryTrips(ctx, listTripsByDestination, destination)
}

func (q *Queries) queryTrips(ctx context.Context, query string, args ...interface{}) ([]TripRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TripRow
	for rows.Next() {
		var i TripRow
		if err := rows.Scan(&i.RowNo, &i.Destination, &i.FieldsJSON); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDestinations = `SELECT DISTINCT destination FROM trips WHERE destination <> '' ORDER BY destination`

func (q *Queries) ListDestinations(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listDestinations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTrips = `SELECT COUNT(*) FROM trips`

func (q *Queries) CountTrips(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTrips)
	var count int64
	err := row.Scan(&count)
	return count, err
}
