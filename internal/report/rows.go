package report

import "stocklens/internal"

// DefaultColumns is the column selection the tabular view starts with:
// identity and the headline measures, then whichever of the common
// descriptive columns this upload carried.
func DefaultColumns(t internal.Table) []internal.Field {
	cols := []internal.Field{
		internal.FieldStyleID, internal.FieldYear, internal.FieldMonthName,
		internal.FieldBalanceQty, internal.FieldSalesQty, internal.FieldPctSold,
	}
	if !t.HasField(internal.FieldBalanceQty) && t.HasField(internal.FieldOpeningStock) {
		cols[3] = internal.FieldOpeningStock
	}
	for _, f := range []internal.Field{
		internal.FieldSKU, internal.FieldSubcategory, internal.FieldBrand,
		internal.FieldColor, internal.FieldMarketplace, internal.FieldSeason,
	} {
		if t.HasField(f) {
			cols = append(cols, f)
		}
	}
	return cols
}

// Rows projects the table onto the chosen columns as JSON-friendly maps.
// Unknown columns are ignored; nil year/month serialize as null. limit <= 0
// means all rows.
func Rows(t internal.Table, cols []internal.Field, limit int) []map[string]any {
	if len(cols) == 0 {
		cols = DefaultColumns(t)
	}

	n := len(t.Rows)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]map[string]any, 0, n)
	for _, rec := range t.Rows[:n] {
		row := make(map[string]any, len(cols))
		for _, f := range cols {
			row[string(f)] = fieldValue(rec, f)
		}
		out = append(out, row)
	}
	return out
}

func fieldValue(rec internal.Record, f internal.Field) any {
	switch f {
	case internal.FieldStyleID:
		return rec.StyleID
	case internal.FieldYear:
		if rec.Year == nil {
			return nil
		}
		return *rec.Year
	case internal.FieldMonth:
		if rec.Month == nil {
			return nil
		}
		return *rec.Month
	}
	if v, ok := rec.Measures[f]; ok {
		return v
	}
	if v, ok := rec.Attrs[f]; ok {
		return v
	}
	return nil
}
