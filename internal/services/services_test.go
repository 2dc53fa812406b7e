package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"taxis/internal/core"
	"taxis/internal/trips/memory"
)

const tripsCSV = `Importe_total,Distancia_KM,N_pasajeros,Hora_inicio,Hora_fin,Tarfia_base,Tax,Propina,Coste_Peaje,Recargo_adicional,Extra,Forma_de_pago,Zona_origen,Zona_destino
20,10,1,1/1/2025 10:00,1/1/2025 10:20,15,2,2,0,1,0,1,Midtown,Queens
10,5,2,1/1/2025 11:00,1/1/2025 11:10,8,1,1,0,0,0,2,SoHo,Queens
30,12,1,1/1/2025 12:00,1/1/2025 12:30,25,2,3,0,0,0,1,Harlem,Bronx
5,1,1,1/1/2025 13:00,1/1/2025 13:05,4,1,0,0,0,0,2,Harlem,
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// loadedStore returns a memory store holding tripsCSV.
func loadedStore(t *testing.T) *memory.Store {
	t.Helper()
	path := writeFile(t, t.TempDir(), "trips.csv", tripsCSV)
	s := memory.New(core.DefaultColumns(), ',')
	if err := s.Load(context.Background(), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}
