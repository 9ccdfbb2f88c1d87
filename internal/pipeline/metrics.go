package pipeline

import "stocklens/internal"

// PctSold is the ratio metric used at every level: record, aggregate and
// summary. A zero denominator yields 0 by policy, never a division fault.
// Aggregates must apply it to summed quantities, not average the per-record
// percentages; averaging percentages under nonuniform denominators is
// invalid.
func PctSold(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator * 100
}

// EfficiencyThresholds are the ordinal bucket upper bounds, in percent.
// They come from configuration; this is the only place labels are assigned.
type EfficiencyThresholds struct {
	LowMax    float64
	MediumMax float64
	HighMax   float64
}

const (
	EffNoBaseline = "no baseline"
	EffLow        = "low"
	EffMedium     = "medium"
	EffHigh       = "high"
	EffVeryHigh   = "very high"
)

// Classify buckets a record by its percent-sold. A zero denominator has no
// baseline to rate against, whatever was sold.
func (th EfficiencyThresholds) Classify(pct, denominator float64) string {
	switch {
	case denominator <= 0:
		return EffNoBaseline
	case pct <= th.LowMax:
		return EffLow
	case pct <= th.MediumMax:
		return EffMedium
	case pct <= th.HighMax:
		return EffHigh
	default:
		return EffVeryHigh
	}
}

// ApplyMetrics derives PCT_SOLD and the efficiency bucket on every row,
// using the named denominator measure (BALANCE_QTY on the joined path,
// OPENING_STOCK on the single-sheet path). Returns a new table; the input
// is not mutated.
func ApplyMetrics(t internal.Table, denominator internal.Field, th EfficiencyThresholds) internal.Table {
	out := internal.Table{Role: t.Role, Fields: t.Fields, Rows: make([]internal.Record, 0, len(t.Rows))}
	if !out.HasField(internal.FieldPctSold) {
		out.Fields = append(append([]internal.Field{}, t.Fields...),
			internal.FieldPctSold, internal.FieldEfficiency)
	}

	for _, rec := range t.Rows {
		derived := internal.Record{
			StyleID:  rec.StyleID,
			Year:     rec.Year,
			Month:    rec.Month,
			Measures: make(map[internal.Field]float64, len(rec.Measures)+1),
			Attrs:    make(map[internal.Field]string, len(rec.Attrs)+1),
		}
		for f, v := range rec.Measures {
			derived.Measures[f] = v
		}
		for f, v := range rec.Attrs {
			derived.Attrs[f] = v
		}

		den := rec.Measure(denominator)
		pct := PctSold(rec.Measure(internal.FieldSalesQty), den)
		derived.Measures[internal.FieldPctSold] = pct
		derived.Attrs[internal.FieldEfficiency] = th.Classify(pct, den)

		out.Rows = append(out.Rows, derived)
	}

	return out
}
