package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"taxis/internal/core"
)

func sampleReport() core.Report {
	return core.Report{
		Destination: "Upper East Side",
		Totals:      core.Totals{Trips: 4, Cost: 1234.5, Distance: 30},
		KPIs: core.KPIs{
			MeanDistance:   7.5,
			MeanSpeed:      30,
			CostPerKm:      41.15,
			CostPerMinute:  20.575,
			MeanPassengers: 1.5,
		},
		Breakdown: core.Breakdown{
			Rows: []core.BreakdownRow{
				{Concept: core.ConceptBaseFare, Average: 10, Percent: 50},
				{Concept: core.ConceptTaxes, Average: 2, Percent: 10},
				{Concept: core.ConceptTips, Average: 4, Percent: 20},
				{Concept: core.ConceptTolls, Average: 0, Percent: 0},
				{Concept: core.ConceptSurcharges, Average: 1, Percent: 5},
				{Concept: core.ConceptExtras, Average: 3, Percent: 15},
			},
			AverageTotal: 20,
		},
		Payment:    core.PaymentMix{BizumPct: 50, CashPct: 25, OtherPct: 25, Top: core.PaymentBizum},
		TopOrigins: []core.OriginCount{{Zone: "Midtown", Trips: 3}, {Zone: "SoHo", Trips: 1}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{".JSON", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{" md ", FormatMarkdown, false},
		{"png", FormatPNG, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		destination string
		format      Format
		want        string
	}{
		{"Upper East Side", FormatCSV, "Reporte_Upper_East_Side.csv"},
		{"JFK", FormatMarkdown, "Reporte_JFK.md"},
		{"", FormatJSON, "Reporte_Global.json"},
		{"Governor's Island/Ellis Island/Liberty Island", FormatCSV, "Reporte_Governor's_Island_Ellis_Island_Liberty_Island.csv"},
		{`Newark Airport\Terminal: A|B`, FormatPDF, "Reporte_Newark_Airport_Terminal__A_B.pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.destination, tt.format); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.destination, tt.format, got, tt.want)
		}
	}
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatCSV); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 1+len(core.Concepts) {
		t.Fatalf("got %d rows, want %d", len(rows), 1+len(core.Concepts))
	}
	if strings.Join(rows[0], ",") != strings.Join(reportHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	first := rows[1]
	if first[0] != "4" || first[2] != "7.5" || first[7] != core.PaymentBizum {
		t.Errorf("kpi cells = %v", first)
	}
	if first[8] != core.ConceptBaseFare || first[9] != "10" {
		t.Errorf("breakdown cells = %v", first[8:])
	}
	if rows[6][8] != core.ConceptExtras {
		t.Errorf("last concept = %q", rows[6][8])
	}
}

func TestWriteGlobalCSV(t *testing.T) {
	a := sampleReport()
	b := sampleReport().WithDestination("Bronx")
	b.Payment = core.PaymentMix{OtherPct: 100, Top: core.PaymentNone}

	var buf bytes.Buffer
	if err := WriteGlobal(&buf, []core.Report{a, b}, FormatCSV); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "Upper East Side" || rows[1][9] != "50" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][8] != core.PaymentNone || rows[2][9] != "100" {
		t.Errorf("N/A row should carry the Other share: %v", rows[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n    \"destination\": \"Upper East Side\"") {
		t.Errorf("expected four-space indentation, got:\n%s", buf.String())
	}
	var decoded core.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.KPIs.MeanSpeed != 30 || len(decoded.TopOrigins) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}

	buf.Reset()
	if err := WriteGlobal(&buf, nil, FormatJSON); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty rollup = %q, want []", buf.String())
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatMarkdown); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Trip Analysis Report: Upper East Side",
		"- **Total trips**: 4",
		"- **Total cost**: $1,234.50",
		"- **Accumulated distance**: 30.00 km",
		"| Mean speed | 30.0 km/h |",
		"- **Preferred method**: Bizum",
		"- **Cash**: 25.0%",
		"| Base Fare | $10.00 | 50.0% |",
		"| **TOTAL** | **$20.00** | **100%** |",
		"| Midtown | 3 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestWriteMarkdownEscapesCells(t *testing.T) {
	r := sampleReport()
	r.TopOrigins = []core.OriginCount{{Zone: "Battery Park | Pier A", Trips: 2}, {Zone: "Line\nBreak", Trips: 1}}

	var buf bytes.Buffer
	if err := WriteReport(&buf, r, FormatMarkdown); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`| Battery Park \| Pier A | 2 |`,
		"| Line Break | 1 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q in:\n%s", want, out)
		}
	}
}

func TestWritePNG(t *testing.T) {
	for _, r := range []core.Report{sampleReport(), {Destination: "Empty"}} {
		var buf bytes.Buffer
		if err := WriteReport(&buf, r, FormatPNG); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("decode png: %v", err)
		}
		if img.Bounds().Dx() != chartWidth {
			t.Errorf("width = %d, want %d", img.Bounds().Dx(), chartWidth)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatXLSX); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(summarySheet, "B1"); got != "Upper East Side" {
		t.Errorf("summary B1 = %q", got)
	}
	rows, err := f.GetRows(breakdownSheet)
	if err != nil {
		t.Fatalf("breakdown rows: %v", err)
	}
	if len(rows) != 2+len(core.Concepts) || rows[len(rows)-1][0] != "TOTAL" {
		t.Errorf("breakdown rows = %v", rows)
	}
	origins, _ := f.GetRows(originsSheet)
	if len(origins) != 3 {
		t.Errorf("origin rows = %v", origins)
	}
}

func TestWriteGlobalXLSX(t *testing.T) {
	var buf bytes.Buffer
	reports := []core.Report{sampleReport(), sampleReport().WithDestination("Bronx")}
	if err := WriteGlobal(&buf, reports, FormatXLSX); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(globalSheet)
	if len(rows) != 3 || rows[2][0] != "Bronx" {
		t.Errorf("rows = %v", rows)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatPDF); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
	buf.Reset()
	if err := WriteGlobal(&buf, []core.Report{sampleReport()}, FormatPDF); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("global output is not a PDF")
	}
}

func TestWriteGlobalUnsupported(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatPNG, "txt"} {
		if err := WriteGlobal(&bytes.Buffer{}, nil, f); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("WriteGlobal(%q) = %v, want ErrUnsupportedFormat", f, err)
		}
	}
	if err := WriteReport(&bytes.Buffer{}, core.Report{}, "txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("WriteReport(txt) = %v", err)
	}
}

func TestSaveReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := SaveReport(dir, sampleReport(), FormatMarkdown)
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if filepath.Base(path) != "Reporte_Upper_East_Side.md" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(data, []byte("# Trip Analysis Report")) {
		t.Fatalf("read back: %v %q", err, data)
	}

	if _, err := SaveGlobal(dir, nil, FormatPNG); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("SaveGlobal(png) = %v", err)
	}
	path, err = SaveGlobal(dir, []core.Report{sampleReport()}, FormatCSV)
	if err != nil || filepath.Base(path) != "Reporte_Global.csv" {
		t.Fatalf("SaveGlobal() = %s, %v", path, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("export dir holds %d entries, want 2 (no temp files left)", len(entries))
	}
}
