package core

// Payment bucket names as shown in reports.
const (
	PaymentBizum = "Bizum"
	PaymentCash  = "Cash"
	PaymentOther = "Other"
	PaymentNone  = "N/A"
)

// Cost breakdown concepts, in report order.
const (
	ConceptBaseFare   = "Base Fare"
	ConceptTaxes      = "Taxes"
	ConceptTips       = "Tips"
	ConceptTolls      = "Tolls"
	ConceptSurcharges = "Surcharges"
	ConceptExtras     = "Extras/Other"
)

const (
	conceptCount = 6
	// TopOriginsLimit caps the number of origin zones in a report.
	TopOriginsLimit = 5
)

// Concepts lists the breakdown concepts in their fixed order.
var Concepts = [conceptCount]string{
	ConceptBaseFare,
	ConceptTaxes,
	ConceptTips,
	ConceptTolls,
	ConceptSurcharges,
	ConceptExtras,
}

type (
	// Report is the consolidated metrics snapshot for one destination.
	Report struct {
		Destination string        `json:"destination,omitempty"`
		Totals      Totals        `json:"totals"`
		KPIs        KPIs          `json:"kpis"`
		Breakdown   Breakdown     `json:"breakdown"`
		Payment     PaymentMix    `json:"payment"`
		TopOrigins  []OriginCount `json:"top_origins"`
		LastRecord  Trip          `json:"last_record"`
	}

	Totals struct {
		Trips    int     `json:"trips"`
		Cost     float64 `json:"cost"`
		Distance float64 `json:"distance"`
	}

	KPIs struct {
		MeanDistance   float64 `json:"mean_distance"`
		MeanSpeed      float64 `json:"mean_speed"` // km/h
		CostPerKm      float64 `json:"cost_per_km"`
		CostPerMinute  float64 `json:"cost_per_minute"`
		MeanPassengers float64 `json:"mean_passengers"`
	}

	BreakdownRow struct {
		Concept string  `json:"concept"`
		Average float64 `json:"average"`
		Percent float64 `json:"percent"`
	}

	Breakdown struct {
		Rows         []BreakdownRow `json:"rows"`
		AverageTotal float64        `json:"average_total"`
	}

	PaymentMix struct {
		BizumPct float64 `json:"bizum_pct"`
		CashPct  float64 `json:"cash_pct"`
		OtherPct float64 `json:"other_pct"`
		Top      string  `json:"top"`
	}

	OriginCount struct {
		Zone  string `json:"zone"`
		Trips int    `json:"trips"`
	}
)

// TopPercent returns the share of the top payment method.
// With no identified method it falls back to the Other share.
func (p PaymentMix) TopPercent() float64 {
	switch p.Top {
	case PaymentBizum:
		return p.BizumPct
	case PaymentCash:
		return p.CashPct
	default:
		return p.OtherPct
	}
}

// WithDestination returns a copy of the report labelled with name.
func (r Report) WithDestination(name string) Report {
	r.Destination = name
	return r
}
