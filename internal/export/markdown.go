package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taxis/internal/core"
)

// printer groups thousands the way the reports show money and distances.
var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// cell escapes s for use inside a table cell.
func cell(s string) string {
	return cellEscaper.Replace(s)
}

func writeReportMarkdown(w io.Writer, r core.Report) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("# Trip Analysis Report: %s\n\n", r.Destination)

	p("## Executive Summary\n")
	p("- **Total trips**: %d\n", r.Totals.Trips)
	p("- **Total cost**: %s\n", money(r.Totals.Cost))
	p("- **Accumulated distance**: %s km\n\n", printer.Sprintf("%.2f", r.Totals.Distance))

	p("## Key Performance Indicators\n")
	p("| Metric | Value |\n")
	p("|--------|-------|\n")
	p("| Mean distance | %.2f km |\n", r.KPIs.MeanDistance)
	p("| Mean speed | %.1f km/h |\n", r.KPIs.MeanSpeed)
	p("| Cost per km | $%.2f |\n", r.KPIs.CostPerKm)
	p("| Cost per minute | $%.2f |\n", r.KPIs.CostPerMinute)
	p("| Passengers per trip | %.1f |\n\n", r.KPIs.MeanPassengers)

	p("## Payment Analysis\n")
	p("- **Preferred method**: %s\n", r.Payment.Top)
	p("- **%s**: %.1f%%\n", core.PaymentBizum, r.Payment.BizumPct)
	p("- **%s**: %.1f%%\n", core.PaymentCash, r.Payment.CashPct)
	p("- **%s**: %.1f%%\n\n", core.PaymentOther, r.Payment.OtherPct)

	p("## Average Cost Breakdown\n")
	p("| Concept | Cost ($) | %% Total |\n")
	p("|---------|----------|---------|\n")
	for _, row := range r.Breakdown.Rows {
		p("| %s | $%.2f | %.1f%% |\n", cell(row.Concept), row.Average, row.Percent)
	}
	p("| **TOTAL** | **$%.2f** | **100%%** |\n", r.Breakdown.AverageTotal)

	if len(r.TopOrigins) > 0 {
		p("\n## Top Origin Zones\n")
		p("| Zone | Trips |\n")
		p("|------|-------|\n")
		for _, o := range r.TopOrigins {
			p("| %s | %d |\n", cell(o.Zone), o.Trips)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
