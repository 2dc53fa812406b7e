package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"taxis/internal/core"
)

var (
	reportHeader = []string{
		"Trips", "Total Cost", "Mean Distance", "Mean Speed", "Cost/Km",
		"Cost/Min", "Mean Pax", "Top Payment", "Breakdown Concept", "Breakdown Average",
	}
	// GlobalHeader names the per-destination columns of the rollup.
	GlobalHeader = []string{
		"Destination", "Trips", "Total Cost", "Mean Distance", "Mean Speed",
		"Cost/Km", "Cost/Min", "Mean Pax", "Top Payment", "Top Payment %",
	}
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// kpiCells are the report-level columns shared by every row of a report CSV.
func kpiCells(r core.Report) []string {
	return []string{
		strconv.Itoa(r.Totals.Trips),
		num(r.Totals.Cost),
		num(r.KPIs.MeanDistance),
		num(r.KPIs.MeanSpeed),
		num(r.KPIs.CostPerKm),
		num(r.KPIs.CostPerMinute),
		num(r.KPIs.MeanPassengers),
		r.Payment.Top,
	}
}

// writeReportCSV writes one row per breakdown concept, repeating the KPIs.
func writeReportCSV(w io.Writer, r core.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	kpis := kpiCells(r)
	for _, row := range r.Breakdown.Rows {
		rec := append(append(make([]string, 0, len(reportHeader)), kpis...), row.Concept, num(row.Average))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeGlobalCSV(w io.Writer, reports []core.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GlobalHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range reports {
		rec := append([]string{r.Destination}, kpiCells(r)...)
		rec = append(rec, num(r.Payment.TopPercent()))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// GlobalValues returns the typed cells of one rollup row, in GlobalHeader order.
func GlobalValues(r core.Report) []any {
	return []any{
		r.Destination,
		r.Totals.Trips,
		r.Totals.Cost,
		r.KPIs.MeanDistance,
		r.KPIs.MeanSpeed,
		r.KPIs.CostPerKm,
		r.KPIs.CostPerMinute,
		r.KPIs.MeanPassengers,
		r.Payment.Top,
		r.Payment.TopPercent(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
