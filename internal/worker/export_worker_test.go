package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taxis/internal/amqp"
	"taxis/internal/core"
	"taxis/internal/services"
	"taxis/internal/sheets"
	"taxis/internal/sheets/memory"
	tripsmem "taxis/internal/trips/memory"
)

type failingSheet struct{}

func (failingSheet) WriteGlobal(context.Context, []core.Report) error {
	return errors.New("quota exceeded")
}

func newWorker(t *testing.T, sheet sheets.RollupWriter) (*ExportWorker, string) {
	t.Helper()
	trips := []core.Trip{
		{"Importe_total": "10", "Distancia_KM": "2", "Forma_de_pago": "1", "Zona_origen": "A", "Zona_destino": "Queens"},
		{"Importe_total": "20", "Distancia_KM": "4", "Forma_de_pago": "2", "Zona_origen": "B", "Zona_destino": "Bronx"},
	}
	store := tripsmem.NewFromRecords(core.DefaultColumns(), nil, trips)
	reports := services.NewReportService(store, core.DefaultColumns())
	dir := t.TempDir()
	return NewExportWorker(reports, services.NewExportService(reports, nil), sheet, dir), dir
}

func TestHandleExportRequest_Global(t *testing.T) {
	sheet := memory.New()
	w, dir := newWorker(t, sheet)

	msg := amqp.NewGlobalExportRequest("csv", "req_1")
	if err := w.HandleExportRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleExportRequest() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Reporte_Global.csv")); err != nil {
		t.Errorf("rollup file missing: %v", err)
	}
	rows := sheet.Rows()
	if len(rows) != 3 || rows[1][0] != "Bronx" {
		t.Errorf("sheet rows = %v", rows)
	}
}

func TestHandleExportRequest_Destination(t *testing.T) {
	sheet := memory.New()
	w, dir := newWorker(t, sheet)

	msg := amqp.NewDestinationExportRequest("Queens", "md", "req_2")
	if err := w.HandleExportRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleExportRequest() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Reporte_Queens.md")); err != nil {
		t.Errorf("report file missing: %v", err)
	}
	if sheet.Writes() != 0 {
		t.Error("destination exports should not touch the spreadsheet")
	}
}

func TestHandleExportRequest_Invalid(t *testing.T) {
	w, _ := newWorker(t, nil)
	tests := []struct {
		name string
		msg  *amqp.ExportRequestMessage
	}{
		{"unknown format", amqp.NewGlobalExportRequest("docx", "")},
		{"markdown rollup", amqp.NewGlobalExportRequest("md", "")},
		{"unknown destination", amqp.NewDestinationExportRequest("Nowhere", "csv", "")},
		{"unknown scope", &amqp.ExportRequestMessage{Scope: "all", Format: "csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.HandleExportRequest(context.Background(), tt.msg)
			if !errors.Is(err, amqp.ErrInvalidMessage) {
				t.Fatalf("HandleExportRequest() = %v, want ErrInvalidMessage", err)
			}
		})
	}
}

func TestHandleExportRequest_SheetFailureIsRetryable(t *testing.T) {
	w, _ := newWorker(t, failingSheet{})
	err := w.HandleExportRequest(context.Background(), amqp.NewGlobalExportRequest("json", ""))
	if err == nil {
		t.Fatal("expected sheet error")
	}
	if errors.Is(err, amqp.ErrInvalidMessage) {
		t.Error("sheet failures should be requeued, not rejected")
	}
}

func TestHandleExportRequest_DestinationWithSlashes(t *testing.T) {
	const zone = "Governor's Island/Ellis Island/Liberty Island"
	trips := []core.Trip{
		{"Importe_total": "12", "Distancia_KM": "3", "Forma_de_pago": "1", "Zona_origen": "A", "Zona_destino": zone},
	}
	store := tripsmem.NewFromRecords(core.DefaultColumns(), nil, trips)
	reports := services.NewReportService(store, core.DefaultColumns())
	dir := t.TempDir()
	w := NewExportWorker(reports, services.NewExportService(reports, nil), nil, dir)

	msg := amqp.NewDestinationExportRequest(zone, "csv", "req_3")
	if err := w.HandleExportRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleExportRequest() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Reporte_Governor's_Island_Ellis_Island_Liberty_Island.csv")); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}
