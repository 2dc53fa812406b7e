package http

import (
	"html/template"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taxis/internal/core"
	"taxis/internal/export"
)

var printer = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return printer.Sprintf("$%.2f", v) },
	"num":   func(v float64) string { return printer.Sprintf("%.2f", v) },
	"one":   func(v float64) string { return printer.Sprintf("%.1f", v) },
	"int":   func(v int) string { return printer.Sprintf("%d", v) },
}

type destinationsView struct {
	Destinations []string
	Records      int
	LoadedAt     string
	Error        string
}

type field struct {
	Name, Value string
}

type originBar struct {
	Zone  string
	Trips int
	Width int
}

type reportView struct {
	core.Report
	Origins       []originBar
	Last          []field
	Formats       []export.Format
	GlobalFormats []export.Format
	QueueEnabled  bool
}

func newReportView(r core.Report, queue bool) reportView {
	v := reportView{
		Report:        r,
		Formats:       export.Formats,
		GlobalFormats: export.GlobalFormats,
		QueueEnabled:  queue,
	}

	most := 0
	for _, o := range r.TopOrigins {
		most = max(most, o.Trips)
	}
	for _, o := range r.TopOrigins {
		width := 0
		if most > 0 {
			width = max(2, o.Trips*100/most)
		}
		v.Origins = append(v.Origins, originBar{Zone: o.Zone, Trips: o.Trips, Width: width})
	}

	keys := make([]string, 0, len(r.LastRecord))
	for k := range r.LastRecord {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Last = append(v.Last, field{Name: k, Value: r.LastRecord[k]})
	}
	return v
}

type emptyView struct {
	Destination string
	Message     string
}
