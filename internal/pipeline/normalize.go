package pipeline

import (
	"strings"

	"stocklens/internal"
	"stocklens/internal/util"
)

// Normalize turns a raw sheet into a canonical table using the resolved
// column map. styleField names the column serving as the style identifier
// (STYLE_ID, or SKU when the fallback is active).
//
// Coercion policy: text fields are trimmed; YEAR/MONTH parse as ints and
// become nil when unparseable; quantity measures zero-fill; price measures
// stay absent when unparseable. Optional columns the sheet does not carry
// are left out of the schema entirely. MONTH_NAME derives from MONTH.
func Normalize(raw internal.RawTable, res Resolution, styleField internal.Field) (internal.Table, internal.NormalizeStats) {
	t := internal.Table{Role: res.Role, Fields: canonicalFields(res, styleField)}
	stats := internal.NormalizeStats{Rows: len(raw.Rows)}

	styleIdx, hasStyle := res.Columns[styleField]
	yearIdx := res.Columns[internal.FieldYear]
	monthIdx := res.Columns[internal.FieldMonth]

	for _, row := range raw.Rows {
		rec := internal.Record{
			Measures: map[internal.Field]float64{},
			Attrs:    map[internal.Field]string{},
		}
		if hasStyle {
			rec.StyleID = strings.TrimSpace(cell(row, styleIdx))
		}

		if year, ok := util.ParseInt(cell(row, yearIdx)); ok {
			rec.Year = util.IntPtr(year)
		} else {
			stats.BadYears++
		}
		if month, ok := util.ParseInt(cell(row, monthIdx)); ok {
			rec.Month = util.IntPtr(month)
		} else {
			stats.BadMonths++
		}

		for field, idx := range res.Columns {
			switch {
			case field == styleField || field == internal.FieldStyleID ||
				field == internal.FieldYear || field == internal.FieldMonth:
				// handled above
			case quantityFields[field]:
				qty, ok := util.ParseNumber(cell(row, idx))
				if !ok {
					stats.ZeroFilledQty++
					qty = 0
				}
				rec.Measures[field] = qty
			case priceFields[field]:
				if price, ok := util.ParseNumber(cell(row, idx)); ok {
					rec.Measures[field] = price
				}
			default:
				if v := strings.TrimSpace(cell(row, idx)); v != "" {
					rec.Attrs[field] = v
				}
			}
		}

		if rec.Month != nil {
			if name, ok := internal.MonthNames[*rec.Month]; ok {
				rec.Attrs[internal.FieldMonthName] = name
			}
		}

		t.Rows = append(t.Rows, rec)
	}

	return t, stats
}

// canonicalFields fixes the display order of the canonical schema: identity
// first, then measures, then attributes, in alias-table order.
func canonicalFields(res Resolution, styleField internal.Field) []internal.Field {
	order := []internal.Field{
		internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldMonthName,
		internal.FieldBalanceQty, internal.FieldSalesQty,
		internal.FieldOpeningStock, internal.FieldClosingStock,
		internal.FieldSKU, internal.FieldSubcategory, internal.FieldSeason,
		internal.FieldBrand, internal.FieldColor, internal.FieldHeelType,
		internal.FieldMarketplace, internal.FieldSize,
		internal.FieldMRP, internal.FieldSellingPrice, internal.FieldFOB,
		internal.FieldDate,
	}

	fields := []internal.Field{internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldMonthName}
	for _, f := range order[4:] {
		if f != styleField && res.Has(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
