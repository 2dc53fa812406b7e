package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"taxis/internal/core"
)

const (
	summarySheet   = "Summary"
	breakdownSheet = "Breakdown"
	originsSheet   = "Origins"
	globalSheet    = "Destinations"
)

func writeReportXLSX(w io.Writer, r core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{breakdownSheet, originsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]any{
		{"Trip Analysis Report", r.Destination},
		{},
		{"Total trips", r.Totals.Trips},
		{"Total cost", r.Totals.Cost},
		{"Accumulated distance (km)", r.Totals.Distance},
		{"Mean distance (km)", r.KPIs.MeanDistance},
		{"Mean speed (km/h)", r.KPIs.MeanSpeed},
		{"Cost per km", r.KPIs.CostPerKm},
		{"Cost per minute", r.KPIs.CostPerMinute},
		{"Passengers per trip", r.KPIs.MeanPassengers},
		{},
		{"Preferred payment", r.Payment.Top},
		{core.PaymentBizum + " %", r.Payment.BizumPct},
		{core.PaymentCash + " %", r.Payment.CashPct},
		{core.PaymentOther + " %", r.Payment.OtherPct},
	}
	if err := setRows(f, summarySheet, summary); err != nil {
		return err
	}

	breakdown := [][]any{{"Concept", "Average cost", "% Total"}}
	for _, row := range r.Breakdown.Rows {
		breakdown = append(breakdown, []any{row.Concept, row.Average, row.Percent})
	}
	breakdown = append(breakdown, []any{"TOTAL", r.Breakdown.AverageTotal, 100})
	if err := setRows(f, breakdownSheet, breakdown); err != nil {
		return err
	}

	origins := [][]any{{"Zone", "Trips"}}
	for _, o := range r.TopOrigins {
		origins = append(origins, []any{o.Zone, o.Trips})
	}
	if err := setRows(f, originsSheet, origins); err != nil {
		return err
	}
	if n := len(r.TopOrigins); n > 0 {
		last := n + 1
		err := f.AddChart(originsSheet, "D2", &excelize.Chart{
			Type: excelize.Bar,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$1", originsSheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", originsSheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", originsSheet, last),
			}},
			Title: []excelize.RichTextRun{{Text: "Top origin zones"}},
		})
		if err != nil {
			return fmt.Errorf("add origins chart: %w", err)
		}
	}

	return writeWorkbook(w, f)
}

func writeGlobalXLSX(w io.Writer, reports []core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", globalSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := make([][]any, 0, len(reports)+1)
	header := make([]any, len(GlobalHeader))
	for i, h := range GlobalHeader {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range reports {
		rows = append(rows, GlobalValues(r))
	}
	if err := setRows(f, globalSheet, rows); err != nil {
		return err
	}
	return writeWorkbook(w, f)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func writeWorkbook(w io.Writer, f *excelize.File) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
