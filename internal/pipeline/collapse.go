package pipeline

import "stocklens/internal"

// Collapse aggregates rows sharing the composite key into one row per key:
// quantity measures are summed, every other column (prices included) takes
// the first non-null value in original row order. The key is (style, year, month), extended by the
// marketplace attribute when marketplaceKey is set.
//
// The detection pass always runs even when there is nothing to collapse; the
// returned count is the number of rows that shared a key with another row
// and is surfaced to the operator. Spreadsheet exports repeat rows for
// multi-channel listings, and skipping this step would double-count sales.
// Collapse is idempotent: collapsing a collapsed table is a no-op.
func Collapse(t internal.Table, marketplaceKey bool) (internal.Table, int) {
	marketplaceKey = marketplaceKey && t.HasField(internal.FieldMarketplace)

	order := make([]internal.Key, 0, len(t.Rows))
	groups := map[internal.Key][]internal.Record{}
	for _, rec := range t.Rows {
		k := rec.KeyWith(marketplaceKey)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	duplicates := 0
	out := internal.Table{Role: t.Role, Fields: t.Fields, Rows: make([]internal.Record, 0, len(order))}
	for _, k := range order {
		group := groups[k]
		if len(group) > 1 {
			duplicates += len(group)
		}
		out.Rows = append(out.Rows, mergeGroup(group))
	}

	return out, duplicates
}

func mergeGroup(group []internal.Record) internal.Record {
	if len(group) == 1 {
		return group[0]
	}

	first := group[0]
	merged := internal.Record{
		StyleID:  first.StyleID,
		Year:     first.Year,
		Month:    first.Month,
		Measures: map[internal.Field]float64{},
		Attrs:    map[internal.Field]string{},
	}

	for _, rec := range group {
		for f, v := range rec.Measures {
			if quantityFields[f] {
				merged.Measures[f] += v
			} else if _, have := merged.Measures[f]; !have {
				merged.Measures[f] = v
			}
		}
		for f, v := range rec.Attrs {
			if _, have := merged.Attrs[f]; !have {
				merged.Attrs[f] = v
			}
		}
		if merged.Year == nil && rec.Year != nil {
			merged.Year = rec.Year
		}
		if merged.Month == nil && rec.Month != nil {
			merged.Month = rec.Month
		}
	}

	return merged
}
