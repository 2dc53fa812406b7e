package core

type (
	// Trip is one row of the input dataset keyed by CSV header.
	// Values are kept verbatim; numeric conversion happens in Evaluate.
	Trip map[string]string

	// Columns maps the semantic trip fields to the CSV header names
	// they are read from.
	Columns struct {
		TotalCost       string
		DistanceKm      string
		Passengers      string
		StartTime       string
		EndTime         string
		BaseFare        string
		Tax             string
		Tip             string
		Toll            string
		Surcharge       string
		Extra           string
		PaymentCode     string
		OriginZone      string
		DestinationZone string
	}
)

// TimestampLayout is the start/end timestamp format (day/month/year hour:minute).
// Day, month and hour accept one or two digits.
const TimestampLayout = "2/1/2006 15:04"

// DefaultColumns returns the headers of the NYC trip export the dashboard ships with.
// "Tarfia_base" is the dataset's own spelling.
func DefaultColumns() Columns {
	return Columns{
		TotalCost:       "Importe_total",
		DistanceKm:      "Distancia_KM",
		Passengers:      "N_pasajeros",
		StartTime:       "Hora_inicio",
		EndTime:         "Hora_fin",
		BaseFare:        "Tarfia_base",
		Tax:             "Tax",
		Tip:             "Propina",
		Toll:            "Coste_Peaje",
		Surcharge:       "Recargo_adicional",
		Extra:           "Extra",
		PaymentCode:     "Forma_de_pago",
		OriginZone:      "Zona_origen",
		DestinationZone: "Zona_destino",
	}
}

// WithDefaults fills every empty header with its default name.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.TotalCost, d.TotalCost)
	fill(&c.DistanceKm, d.DistanceKm)
	fill(&c.Passengers, d.Passengers)
	fill(&c.StartTime, d.StartTime)
	fill(&c.EndTime, d.EndTime)
	fill(&c.BaseFare, d.BaseFare)
	fill(&c.Tax, d.Tax)
	fill(&c.Tip, d.Tip)
	fill(&c.Toll, d.Toll)
	fill(&c.Surcharge, d.Surcharge)
	fill(&c.Extra, d.Extra)
	fill(&c.PaymentCode, d.PaymentCode)
	fill(&c.OriginZone, d.OriginZone)
	fill(&c.DestinationZone, d.DestinationZone)
	return c
}

// conceptKeys returns the breakdown headers in Concepts order.
func (c Columns) conceptKeys() [conceptCount]string {
	return [conceptCount]string{c.BaseFare, c.Tax, c.Tip, c.Toll, c.Surcharge, c.Extra}
}

// Destination returns the destination zone of the trip, or "" when absent.
func (t Trip) Destination(c Columns) string {
	return t[c.DestinationZone]
}

// Clone returns a copy that does not share the underlying map.
func (t Trip) Clone() Trip {
	if t == nil {
		return nil
	}
	out := make(Trip, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
