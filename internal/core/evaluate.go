package core

import (
	"strconv"
	"strings"
	"time"
)

// Outcome tags how a single trip contributes to the aggregate.
type Outcome int

const (
	// OutcomeValid: numeric values and duration are accumulated.
	OutcomeValid Outcome = iota
	// OutcomeNoDuration: numeric values are accumulated, the duration is not.
	OutcomeNoDuration
	// OutcomeSkipNumeric: the trip is counted but contributes no numeric value.
	OutcomeSkipNumeric
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeNoDuration:
		return "skip-duration"
	case OutcomeSkipNumeric:
		return "skip-numeric"
	default:
		return "unknown"
	}
}

// Evaluation is the parsed numeric contribution of one trip.
type Evaluation struct {
	Outcome     Outcome
	Cost        float64
	Distance    float64
	Passengers  int
	Minutes     float64
	Concepts    [conceptCount]float64
	PaymentCode int
}

// Evaluate parses the numeric fields of t.
//
// An absent field reads as zero. A present value that does not parse on
// any of cost, distance, passengers or the six breakdown concepts discards
// the whole numeric contribution of the trip, duration and payment included.
// A bad or non-positive duration only drops the duration. An unparsable
// payment code becomes 0, which maps to no payment bucket.
func Evaluate(cols Columns, t Trip) Evaluation {
	var ev Evaluation
	var err error

	if ev.Cost, err = floatField(t, cols.TotalCost); err != nil {
		return Evaluation{Outcome: OutcomeSkipNumeric}
	}
	if ev.Distance, err = floatField(t, cols.DistanceKm); err != nil {
		return Evaluation{Outcome: OutcomeSkipNumeric}
	}
	if ev.Passengers, err = intField(t, cols.Passengers); err != nil {
		return Evaluation{Outcome: OutcomeSkipNumeric}
	}
	for i, key := range cols.conceptKeys() {
		if ev.Concepts[i], err = floatField(t, key); err != nil {
			return Evaluation{Outcome: OutcomeSkipNumeric}
		}
	}
	if code, err := intField(t, cols.PaymentCode); err == nil {
		ev.PaymentCode = code
	}

	minutes, ok := tripMinutes(t[cols.StartTime], t[cols.EndTime])
	if !ok {
		ev.Outcome = OutcomeNoDuration
		return ev
	}
	ev.Minutes = minutes
	ev.Outcome = OutcomeValid
	return ev
}

func floatField(t Trip, key string) (float64, error) {
	v, ok := t[key]
	if !ok {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func intField(t Trip, key string) (int, error) {
	v, ok := t[key]
	if !ok {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

// tripMinutes returns end-start in minutes; ok is false when either stamp
// is missing or malformed, or the duration is not positive.
func tripMinutes(start, end string) (float64, bool) {
	if start == "" || end == "" {
		return 0, false
	}
	t1, err := time.Parse(TimestampLayout, start)
	if err != nil {
		return 0, false
	}
	t2, err := time.Parse(TimestampLayout, end)
	if err != nil {
		return 0, false
	}
	minutes := t2.Sub(t1).Minutes()
	if minutes <= 0 {
		return 0, false
	}
	return minutes, true
}
