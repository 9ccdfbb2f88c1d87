package pipeline

import "stocklens/internal"

// LeftJoin combines the Balance table (left) and the Sales table (right) on
// (style, year, month). Inventory is authoritative for the reporting
// universe: every left row appears exactly once, and sales rows with no
// matching balance row are dropped; their distinct keys are counted in
// JoinStats.RightOnly so the loss is visible to the operator.
//
// Precondition: the right table must already be collapsed on the join key.
// An uncollapsed right side would fan out left rows and double-count sales;
// this function keys the right side by first occurrence and never emits a
// left row twice regardless.
//
// Unmatched left rows get SALES_QTY = 0 and no right-side attributes.
func LeftJoin(left, right internal.Table) (internal.Table, internal.JoinStats) {
	index := make(map[internal.Key]internal.Record, len(right.Rows))
	for _, rec := range right.Rows {
		k := rec.JoinKey()
		if _, exists := index[k]; !exists {
			index[k] = rec
		}
	}

	out := internal.Table{
		Role:   internal.RoleJoined,
		Fields: joinedFields(left, right),
		Rows:   make([]internal.Record, 0, len(left.Rows)),
	}

	stats := internal.JoinStats{}
	matchedKeys := map[internal.Key]bool{}
	for _, l := range left.Rows {
		k := l.JoinKey()
		merged := internal.Record{
			StyleID:  l.StyleID,
			Year:     l.Year,
			Month:    l.Month,
			Measures: map[internal.Field]float64{},
			Attrs:    map[internal.Field]string{},
		}
		for f, v := range l.Measures {
			merged.Measures[f] = v
		}
		for f, v := range l.Attrs {
			merged.Attrs[f] = v
		}

		r, ok := index[k]
		if ok {
			matchedKeys[k] = true
			stats.Matched++
			for f, v := range r.Measures {
				merged.Measures[f] = v
			}
			for f, v := range r.Attrs {
				if _, have := merged.Attrs[f]; !have {
					merged.Attrs[f] = v
				}
			}
		} else {
			stats.LeftOnly++
			merged.Measures[internal.FieldSalesQty] = 0
		}

		out.Rows = append(out.Rows, merged)
	}

	for k := range index {
		if !matchedKeys[k] {
			stats.RightOnly++
		}
	}

	return out, stats
}

// joinedFields keeps the left schema order and appends the right-side
// columns it does not already carry.
func joinedFields(left, right internal.Table) []internal.Field {
	fields := make([]internal.Field, 0, len(left.Fields)+len(right.Fields))
	fields = append(fields, left.Fields...)
	for _, f := range right.Fields {
		if !left.HasField(f) {
			fields = append(fields, f)
		}
	}
	return fields
}
