package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"taxis/internal/core"
)

// newPDF starts an A4 document. The returned func converts UTF-8 text
// to the code page of the core fonts.
func newPDF(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	return pdf, tr
}

func writeReportPDF(w io.Writer, r core.Report) error {
	pdf, tr := newPDF("Trip Analysis Report: " + r.Destination)

	line := func(s string) {
		pdf.Cell(0, 6, s)
		pdf.Ln(5)
	}
	line(fmt.Sprintf("Total trips: %d", r.Totals.Trips))
	line("Total cost: " + money(r.Totals.Cost))
	line(printer.Sprintf("Accumulated distance: %.2f km", r.Totals.Distance))
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	line("Key performance indicators")
	pdf.SetFont("Arial", "", 10)
	line(fmt.Sprintf("Mean distance: %.2f km", r.KPIs.MeanDistance))
	line(fmt.Sprintf("Mean speed: %.1f km/h", r.KPIs.MeanSpeed))
	line(fmt.Sprintf("Cost per km: $%.2f", r.KPIs.CostPerKm))
	line(fmt.Sprintf("Cost per minute: $%.2f", r.KPIs.CostPerMinute))
	line(fmt.Sprintf("Passengers per trip: %.1f", r.KPIs.MeanPassengers))
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	line("Payment analysis")
	pdf.SetFont("Arial", "", 10)
	line("Preferred method: " + r.Payment.Top)
	line(fmt.Sprintf("%s: %.1f%%   %s: %.1f%%   %s: %.1f%%",
		core.PaymentBizum, r.Payment.BizumPct,
		core.PaymentCash, r.Payment.CashPct,
		core.PaymentOther, r.Payment.OtherPct))
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Concept", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Cost ($)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "% Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range r.Breakdown.Rows {
		pdf.CellFormat(60, 6, row.Concept, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", row.Average), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.1f%%", row.Percent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "TOTAL", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", r.Breakdown.AverageTotal), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, "100%", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if len(r.TopOrigins) > 0 {
		pdf.Ln(6)
		pdf.CellFormat(100, 6, "Origin zone", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Trips", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, o := range r.TopOrigins {
			pdf.CellFormat(100, 6, tr(o.Zone), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, strconv.Itoa(o.Trips), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	return outputPDF(w, pdf)
}

func writeGlobalPDF(w io.Writer, reports []core.Report) error {
	pdf, tr := newPDF("Global Trip Report")
	widths := []float64{50, 18, 28, 24, 24, 22, 24}
	header := []string{"Destination", "Trips", "Total cost", "Mean km", "Km/h", "Cost/km", "Top payment"}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, r := range reports {
		cells := []string{
			tr(r.Destination),
			strconv.Itoa(r.Totals.Trips),
			fmt.Sprintf("%.2f", r.Totals.Cost),
			fmt.Sprintf("%.2f", r.KPIs.MeanDistance),
			fmt.Sprintf("%.1f", r.KPIs.MeanSpeed),
			fmt.Sprintf("%.2f", r.KPIs.CostPerKm),
			r.Payment.Top,
		}
		for i, c := range cells {
			align := "R"
			if i == 0 || i == len(cells)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return outputPDF(w, pdf)
}

func outputPDF(w io.Writer, pdf *gofpdf.Fpdf) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
