package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"taxis/internal/core"
	"taxis/internal/trips"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := NewSQLiteRepository(filepath.Join(dir, "db", "taxis.db"), core.DefaultColumns(), ',')
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSQLiteRepositoryEmpty(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	all, err := repo.AllRecords(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected no records, got %v err=%v", all, err)
	}
	dests, err := repo.UniqueDestinations(ctx)
	if err != nil || dests == nil || len(dests) != 0 {
		t.Fatalf("expected empty destinations, got %#v err=%v", dests, err)
	}
	h, err := repo.Headers(ctx)
	if err != nil || h != nil {
		t.Fatalf("expected nil headers, got %v err=%v", h, err)
	}
	if _, _, _, ok, err := repo.SnapshotInfo(ctx); ok || err != nil {
		t.Fatalf("expected no snapshot, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteRepositoryLoadAndQuery(t *testing.T) {
	ctx := context.Background()
	repo, dir := newTestRepo(t)
	path := filepath.Join(dir, "trips.csv")
	writeFile(t, path, "Zona_origen,Zona_destino,Importe_total\nA,Queens,10\nB,Bronx,20\nC,Queens,30\nD,,5\nE\n")

	if err := repo.Load(ctx, path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	all, err := repo.AllRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("records = %d, want 5", len(all))
	}
	// absent cells stay absent after the round trip
	if _, ok := all[4]["Zona_destino"]; ok {
		t.Fatalf("expected absent destination on ragged row: %v", all[4])
	}

	dests, _ := repo.UniqueDestinations(ctx)
	if !reflect.DeepEqual(dests, []string{"Bronx", "Queens"}) {
		t.Fatalf("destinations = %v", dests)
	}

	q, _ := repo.RecordsForDestination(ctx, "Queens")
	if len(q) != 2 || q[0]["Zona_origen"] != "A" || q[1]["Zona_origen"] != "C" {
		t.Fatalf("queens = %v", q)
	}

	h, _ := repo.Headers(ctx)
	if !reflect.DeepEqual(h, []string{"Zona_origen", "Zona_destino", "Importe_total"}) {
		t.Fatalf("headers = %v", h)
	}

	gotPath, _, n, ok, err := repo.SnapshotInfo(ctx)
	if err != nil || !ok || gotPath != path || n != 5 {
		t.Fatalf("snapshot = %q %d %v %v", gotPath, n, ok, err)
	}
}

func TestSQLiteRepositoryReloadReplaces(t *testing.T) {
	ctx := context.Background()
	repo, dir := newTestRepo(t)
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	writeFile(t, first, "Zona_destino\nX\nY\nX\n")
	writeFile(t, second, "Zona_destino\nZ\n")

	if err := repo.Load(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.Load(ctx, second); err != nil {
		t.Fatal(err)
	}
	all, _ := repo.AllRecords(ctx)
	if len(all) != 1 || all[0]["Zona_destino"] != "Z" {
		t.Fatalf("expected only the second file, got %v", all)
	}

	err := repo.Load(ctx, filepath.Join(dir, "missing.csv"))
	if !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, _ = repo.AllRecords(ctx)
	if len(all) != 1 {
		t.Fatalf("failed load should keep the snapshot, got %v", all)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "taxis.db")
	csvPath := filepath.Join(dir, "trips.csv")
	writeFile(t, csvPath, "Zona_destino,Importe_total\nQ,1\n")

	repo, err := NewSQLiteRepository(dbPath, core.Columns{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Load(ctx, csvPath); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(dbPath, core.Columns{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	q, err := reopened.RecordsForDestination(ctx, "Q")
	if err != nil || len(q) != 1 || q[0]["Importe_total"] != "1" {
		t.Fatalf("reopened records = %v err=%v", q, err)
	}
}
