package core

// Payment method codes as found in the dataset.
const (
	PaymentCodeBizum   = 1
	PaymentCodeCash    = 2
	PaymentCodeOther   = 3
	PaymentCodeUnknown = 4
)

type accumulator struct {
	cost       float64
	distance   float64
	passengers int
	minutes    float64
	hours      float64
	concepts   [conceptCount]float64
}

// Aggregate builds the report for records using the default dataset headers.
// It returns nil when records is empty.
func Aggregate(records []Trip) *Report {
	return AggregateWith(DefaultColumns(), records)
}

// AggregateWith builds the report for records reading fields through cols.
// The trip count is always len(records); trips whose numeric fields fail to
// parse are counted but add nothing to the sums.
func AggregateWith(cols Columns, records []Trip) *Report {
	if len(records) == 0 {
		return nil
	}

	var acc accumulator
	payments := NewCounter[int]()
	origins := NewCounter[string]()

	for _, t := range records {
		if zone, ok := t[cols.OriginZone]; ok {
			origins.Add(zone)
		}

		ev := Evaluate(cols, t)
		if ev.Outcome == OutcomeSkipNumeric {
			continue
		}
		acc.cost += ev.Cost
		acc.distance += ev.Distance
		acc.passengers += ev.Passengers
		if ev.Outcome == OutcomeValid {
			acc.minutes += ev.Minutes
			acc.hours += ev.Minutes / 60
		}
		for i, v := range ev.Concepts {
			acc.concepts[i] += v
		}
		payments.Add(ev.PaymentCode)
	}

	trips := len(records)
	n := float64(trips)

	return &Report{
		Totals: Totals{
			Trips:    trips,
			Cost:     acc.cost,
			Distance: acc.distance,
		},
		KPIs: KPIs{
			MeanDistance:   acc.distance / n,
			MeanSpeed:      ratio(acc.distance, acc.hours),
			CostPerKm:      ratio(acc.cost, acc.distance),
			CostPerMinute:  ratio(acc.cost, acc.minutes),
			MeanPassengers: float64(acc.passengers) / n,
		},
		Breakdown:  breakdown(acc.concepts, n),
		Payment:    paymentMix(payments, n),
		TopOrigins: topOrigins(origins),
		LastRecord: records[trips-1],
	}
}

// ratio returns num/den, or 0 unless den is positive.
func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}

func breakdown(sums [conceptCount]float64, n float64) Breakdown {
	var total float64
	for _, v := range sums {
		total += v
	}
	divisor := total
	if divisor <= 0 {
		divisor = 1
	}

	rows := make([]BreakdownRow, 0, conceptCount)
	for i, v := range sums {
		rows = append(rows, BreakdownRow{
			Concept: Concepts[i],
			Average: v / n,
			Percent: (v / divisor) * 100,
		})
	}
	return Breakdown{Rows: rows, AverageTotal: total / n}
}

func paymentMix(payments *Counter[int], n float64) PaymentMix {
	bizum := payments.Count(PaymentCodeBizum)
	cash := payments.Count(PaymentCodeCash)
	other := payments.Count(PaymentCodeOther) + payments.Count(PaymentCodeUnknown)

	mix := PaymentMix{
		BizumPct: float64(bizum) / n * 100,
		CashPct:  float64(cash) / n * 100,
		OtherPct: float64(other) / n * 100,
		Top:      PaymentNone,
	}

	top := max(bizum, cash, other)
	switch {
	case top == 0:
	case top == bizum:
		mix.Top = PaymentBizum
	case top == cash:
		mix.Top = PaymentCash
	default:
		mix.Top = PaymentOther
	}
	return mix
}

func topOrigins(origins *Counter[string]) []OriginCount {
	top := origins.Top(TopOriginsLimit)
	out := make([]OriginCount, 0, len(top))
	for _, e := range top {
		out = append(out, OriginCount{Zone: e.Key, Trips: e.Count})
	}
	return out
}
