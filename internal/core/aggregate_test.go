package core

import (
	"math"
	"reflect"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func trip(kv ...string) Trip {
	t := Trip{}
	for i := 0; i+1 < len(kv); i += 2 {
		t[kv[i]] = kv[i+1]
	}
	return t
}

func TestAggregateEmpty(t *testing.T) {
	if r := Aggregate(nil); r != nil {
		t.Fatalf("expected nil report for nil input, got %+v", r)
	}
	if r := Aggregate([]Trip{}); r != nil {
		t.Fatalf("expected nil report for empty input, got %+v", r)
	}
}

func TestAggregateBadCostSkipsWholeRecord(t *testing.T) {
	records := []Trip{
		trip("Importe_total", "10", "Distancia_KM", "5", "N_pasajeros", "1"),
		trip("Importe_total", "20", "Distancia_KM", "10", "N_pasajeros", "2"),
		trip("Importe_total", "30", "Distancia_KM", "15", "N_pasajeros", "1"),
		trip("Importe_total", "n/a", "Distancia_KM", "100", "N_pasajeros", "4"),
	}
	r := Aggregate(records)
	if r == nil {
		t.Fatal("expected report")
	}
	if r.Totals.Trips != 4 {
		t.Fatalf("trips = %d, want 4", r.Totals.Trips)
	}
	if !approx(r.Totals.Distance, 30) {
		t.Fatalf("distance = %v, want 30", r.Totals.Distance)
	}
	if !approx(r.Totals.Cost, 60) {
		t.Fatalf("cost = %v, want 60", r.Totals.Cost)
	}
	if !approx(r.KPIs.MeanDistance, 7.5) {
		t.Fatalf("mean distance = %v, want 7.5", r.KPIs.MeanDistance)
	}
	if !approx(r.KPIs.MeanPassengers, 1) {
		t.Fatalf("mean passengers = %v, want 1", r.KPIs.MeanPassengers)
	}
	if !approx(r.KPIs.CostPerKm, 2) {
		t.Fatalf("cost per km = %v, want 2", r.KPIs.CostPerKm)
	}
}

func TestAggregateBadConceptSkipsWholeRecord(t *testing.T) {
	records := []Trip{
		trip("Importe_total", "10", "Distancia_KM", "5", "Propina", "oops", "Forma_de_pago", "1"),
		trip("Importe_total", "20", "Distancia_KM", "5", "Forma_de_pago", "2"),
	}
	r := Aggregate(records)
	if !approx(r.Totals.Cost, 20) {
		t.Fatalf("cost = %v, want 20", r.Totals.Cost)
	}
	// the skipped trip's payment code is not tallied either
	if !approx(r.Payment.BizumPct, 0) || !approx(r.Payment.CashPct, 50) {
		t.Fatalf("unexpected payment mix: %+v", r.Payment)
	}
	if r.Payment.Top != PaymentCash {
		t.Fatalf("top = %q, want Cash", r.Payment.Top)
	}
}

func TestAggregatePaymentMix(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		bizum float64
		cash  float64
		other float64
		top   string
	}{
		{"bizum wins tie with other", []string{"1", "1", "2", "3", "4"}, 40, 20, 40, PaymentBizum},
		{"all unmapped", []string{"0", "0", "0"}, 0, 0, 0, PaymentNone},
		{"unparsable codes are unmapped", []string{"x", "", "1.0"}, 0, 0, 0, PaymentNone},
		{"cash beats other on tie", []string{"2", "3"}, 0, 50, 50, PaymentCash},
		{"other strictly highest", []string{"3", "4", "1"}, 100.0 / 3, 0, 200.0 / 3, PaymentOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]Trip, 0, len(tt.codes))
			for _, c := range tt.codes {
				records = append(records, trip("Forma_de_pago", c))
			}
			r := Aggregate(records)
			p := r.Payment
			if !approx(p.BizumPct, tt.bizum) || !approx(p.CashPct, tt.cash) || !approx(p.OtherPct, tt.other) {
				t.Fatalf("pcts = %v/%v/%v, want %v/%v/%v", p.BizumPct, p.CashPct, p.OtherPct, tt.bizum, tt.cash, tt.other)
			}
			if p.Top != tt.top {
				t.Fatalf("top = %q, want %q", p.Top, tt.top)
			}
		})
	}
}

func TestAggregatePaymentPercentagesSumTo100(t *testing.T) {
	records := []Trip{
		trip("Forma_de_pago", "1"),
		trip("Forma_de_pago", "2"),
		trip("Forma_de_pago", "3"),
		trip("Forma_de_pago", "4"),
		trip("Forma_de_pago", "2"),
		trip("Forma_de_pago", "1"),
		trip("Forma_de_pago", "1"),
	}
	p := Aggregate(records).Payment
	if sum := p.BizumPct + p.CashPct + p.OtherPct; !approx(sum, 100) {
		t.Fatalf("payment pcts sum to %v", sum)
	}
}

func TestAggregateMeanSpeed(t *testing.T) {
	records := []Trip{
		trip("Distancia_KM", "5", "Hora_inicio", "01/01/2025 10:00", "Hora_fin", "01/01/2025 10:10"),
		trip("Distancia_KM", "5", "Hora_inicio", "01/01/2025 10:00", "Hora_fin", "01/01/2025 10:10"),
	}
	r := Aggregate(records)
	if math.Abs(r.KPIs.MeanSpeed-30) > 1e-6 {
		t.Fatalf("mean speed = %v, want 30", r.KPIs.MeanSpeed)
	}
}

func TestAggregateDurationSkipKeepsOtherSums(t *testing.T) {
	records := []Trip{
		trip("Importe_total", "12", "Distancia_KM", "6", "Hora_inicio", "02/03/2025 08:00", "Hora_fin", "02/03/2025 08:30"),
		// end before start: duration dropped, cost kept
		trip("Importe_total", "8", "Distancia_KM", "4", "Hora_inicio", "02/03/2025 09:00", "Hora_fin", "02/03/2025 08:00"),
		// malformed stamp
		trip("Importe_total", "10", "Hora_inicio", "2025-03-02 09:00", "Hora_fin", "02/03/2025 09:10"),
	}
	r := Aggregate(records)
	if !approx(r.Totals.Cost, 30) {
		t.Fatalf("cost = %v, want 30", r.Totals.Cost)
	}
	if !approx(r.KPIs.CostPerMinute, 1) {
		t.Fatalf("cost per minute = %v, want 30/30", r.KPIs.CostPerMinute)
	}
	if !approx(r.KPIs.MeanSpeed, 20) {
		t.Fatalf("mean speed = %v, want 10km/0.5h", r.KPIs.MeanSpeed)
	}
}

func TestAggregateZeroDenominators(t *testing.T) {
	r := Aggregate([]Trip{trip("Zona_origen", "A")})
	k := r.KPIs
	if k.MeanSpeed != 0 || k.CostPerKm != 0 || k.CostPerMinute != 0 || k.MeanDistance != 0 || k.MeanPassengers != 0 {
		t.Fatalf("expected zero KPIs, got %+v", k)
	}
	for _, row := range r.Breakdown.Rows {
		if row.Percent != 0 || row.Average != 0 {
			t.Fatalf("expected zero breakdown row, got %+v", row)
		}
	}
	if r.Breakdown.AverageTotal != 0 {
		t.Fatalf("average total = %v", r.Breakdown.AverageTotal)
	}
}

func TestAggregateBreakdown(t *testing.T) {
	records := []Trip{
		trip("Tarfia_base", "10", "Tax", "2", "Propina", "3", "Coste_Peaje", "1", "Recargo_adicional", "2", "Extra", "2"),
		trip("Tarfia_base", "10", "Tax", "2", "Propina", "1", "Coste_Peaje", "1", "Recargo_adicional", "0", "Extra", "6"),
	}
	b := Aggregate(records).Breakdown
	if len(b.Rows) != len(Concepts) {
		t.Fatalf("rows = %d", len(b.Rows))
	}
	want := []BreakdownRow{
		{ConceptBaseFare, 10, 50},
		{ConceptTaxes, 2, 10},
		{ConceptTips, 2, 10},
		{ConceptTolls, 1, 5},
		{ConceptSurcharges, 1, 5},
		{ConceptExtras, 4, 20},
	}
	var pctSum float64
	for i, row := range b.Rows {
		if row.Concept != want[i].Concept || !approx(row.Average, want[i].Average) || !approx(row.Percent, want[i].Percent) {
			t.Fatalf("row %d = %+v, want %+v", i, row, want[i])
		}
		pctSum += row.Percent
	}
	if !approx(pctSum, 100) {
		t.Fatalf("breakdown pcts sum to %v", pctSum)
	}
	if !approx(b.AverageTotal, 20) {
		t.Fatalf("average total = %v, want 20", b.AverageTotal)
	}
}

func TestAggregateTopOrigins(t *testing.T) {
	zones := []string{"B", "A", "C", "A", "D", "E", "F", "B", "C", "G", ""}
	records := make([]Trip, 0, len(zones)+1)
	for _, z := range zones {
		records = append(records, trip("Zona_origen", z))
	}
	records = append(records, trip("Importe_total", "1")) // no origin key
	got := Aggregate(records).TopOrigins
	want := []OriginCount{{"B", 2}, {"A", 2}, {"C", 2}, {"D", 1}, {"E", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("top origins = %v, want %v", got, want)
	}
}

func TestAggregateLastRecordAndPurity(t *testing.T) {
	records := []Trip{
		trip("Importe_total", "1.5", "Zona_origen", "X"),
		trip("Importe_total", "bad", "Zona_origen", "Y", "Zona_destino", "Z"),
	}
	a := Aggregate(records)
	b := Aggregate(records)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregate is not reproducible:\n%+v\n%+v", a, b)
	}
	if !reflect.DeepEqual(a.LastRecord, records[1]) {
		t.Fatalf("last record = %v", a.LastRecord)
	}
	if a.Destination != "" {
		t.Fatalf("destination should be unset, got %q", a.Destination)
	}
}

func TestAggregateWithCustomColumns(t *testing.T) {
	cols := Columns{TotalCost: "fare", DistanceKm: "km"}.WithDefaults()
	r := AggregateWith(cols, []Trip{trip("fare", "9", "km", "3")})
	if !approx(r.KPIs.CostPerKm, 3) {
		t.Fatalf("cost per km = %v", r.KPIs.CostPerKm)
	}
	if cols.PaymentCode != "Forma_de_pago" {
		t.Fatalf("defaults not applied: %+v", cols)
	}
}

func TestPaymentMixTopPercent(t *testing.T) {
	p := PaymentMix{BizumPct: 10, CashPct: 20, OtherPct: 70}
	cases := map[string]float64{PaymentBizum: 10, PaymentCash: 20, PaymentOther: 70, PaymentNone: 70}
	for top, want := range cases {
		p.Top = top
		if got := p.TopPercent(); got != want {
			t.Fatalf("TopPercent(%s) = %v, want %v", top, got, want)
		}
	}
}
