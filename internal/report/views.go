package report

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"stocklens/internal"
	"stocklens/internal/pipeline"
)

const maxViewWorkers = 4

// Filter selects the slice of the joined table the views are built from.
// Nil year/month mean "all". Attr narrows to one value of a categorical
// column when set.
type Filter struct {
	Year      *int           `json:"year,omitempty"`
	Month     *int           `json:"month,omitempty"`
	Attr      internal.Field `json:"attr,omitempty"`
	AttrValue string         `json:"attrValue,omitempty"`
}

// ApplyFilter returns a new table holding only the matching rows. An empty
// outcome is a valid empty state, not an error; every downstream view
// handles it by producing empty output.
func ApplyFilter(t internal.Table, f Filter) internal.Table {
	out := internal.Table{Role: t.Role, Fields: t.Fields}
	for _, rec := range t.Rows {
		if f.Year != nil && (rec.Year == nil || *rec.Year != *f.Year) {
			continue
		}
		if f.Month != nil && (rec.Month == nil || *rec.Month != *f.Month) {
			continue
		}
		if f.Attr != "" {
			v, ok := rec.Attr(f.Attr)
			if !ok || v != f.AttrValue {
				continue
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// SortKey selects the aggregate column a view is ordered by, descending.
type SortKey string

const (
	SortBySales    SortKey = "SALES_QTY"
	SortByBalance  SortKey = "BALANCE_QTY"
	SortByPctSold  SortKey = "PCT_SOLD"
	SortByProducts SortKey = "PRODUCT_COUNT"
)

// CategoryDimension pairs an optional categorical column with its display
// label.
type CategoryDimension struct {
	Field internal.Field
	Label string
}

// CategoryDimensions lists every categorical view the dashboard can show.
// Which ones actually render depends on the columns the upload carried.
func CategoryDimensions() []CategoryDimension {
	return []CategoryDimension{
		{Field: internal.FieldSeason, Label: "Season"},
		{Field: internal.FieldSubcategory, Label: "Subcategory"},
		{Field: internal.FieldColor, Label: "Color"},
		{Field: internal.FieldBrand, Label: "Brand"},
		{Field: internal.FieldHeelType, Label: "Heel Type"},
		{Field: internal.FieldMarketplace, Label: "Marketplace"},
		{Field: internal.FieldSize, Label: "Size"},
		{Field: internal.FieldEfficiency, Label: "Efficiency"},
	}
}

// AggregateBy groups the table by one categorical dimension: quantity
// measures are summed, products counted distinct, and the ratio metric is
// recomputed from the summed quantities. Rows lacking the dimension are
// skipped; a dimension absent from the schema yields an empty view rather
// than an error, since optional columns vary per upload.
func AggregateBy(t internal.Table, dim internal.Field, label string, denominator internal.Field, sortKey SortKey) internal.AggregateView {
	view := internal.AggregateView{Field: dim, Label: label, Rows: []internal.AggregateRow{}}
	if !t.HasField(dim) {
		return view
	}

	type group struct {
		balance float64
		sales   float64
		styles  map[string]bool
	}
	groups := map[string]*group{}
	order := []string{}

	for _, rec := range t.Rows {
		value, ok := rec.Attr(dim)
		if !ok {
			continue
		}
		g := groups[value]
		if g == nil {
			g = &group{styles: map[string]bool{}}
			groups[value] = g
			order = append(order, value)
		}
		g.balance += rec.Measure(denominator)
		g.sales += rec.Measure(internal.FieldSalesQty)
		g.styles[rec.StyleID] = true
	}

	for _, value := range order {
		g := groups[value]
		row := internal.AggregateRow{
			Dimension:    value,
			BalanceQty:   g.balance,
			SalesQty:     g.sales,
			ProductCount: len(g.styles),
			PctSold:      pipeline.PctSold(g.sales, g.balance),
		}
		if row.ProductCount > 0 {
			row.AvgSalesPerProduct = row.SalesQty / float64(row.ProductCount)
		}
		view.Rows = append(view.Rows, row)
	}

	sortRows(view.Rows, sortKey)
	return view
}

// TimeSeries groups by year-month period, ascending by period. Rows whose
// year or month did not parse have no period and are excluded from the
// series.
func TimeSeries(t internal.Table, denominator internal.Field) internal.AggregateView {
	view := internal.AggregateView{Field: "YEAR_MONTH", Label: "Period", Rows: []internal.AggregateRow{}}

	type group struct {
		balance float64
		sales   float64
		styles  map[string]bool
	}
	groups := map[string]*group{}

	for _, rec := range t.Rows {
		if rec.Year == nil || rec.Month == nil {
			continue
		}
		period := fmt.Sprintf("%d-%02d", *rec.Year, *rec.Month)
		g := groups[period]
		if g == nil {
			g = &group{styles: map[string]bool{}}
			groups[period] = g
		}
		g.balance += rec.Measure(denominator)
		g.sales += rec.Measure(internal.FieldSalesQty)
		g.styles[rec.StyleID] = true
	}

	for period, g := range groups {
		row := internal.AggregateRow{
			Dimension:    period,
			BalanceQty:   g.balance,
			SalesQty:     g.sales,
			ProductCount: len(g.styles),
			PctSold:      pipeline.PctSold(g.sales, g.balance),
		}
		if row.ProductCount > 0 {
			row.AvgSalesPerProduct = row.SalesQty / float64(row.ProductCount)
		}
		view.Rows = append(view.Rows, row)
	}

	slices.SortFunc(view.Rows, func(a, b internal.AggregateRow) int {
		return strings.Compare(a.Dimension, b.Dimension)
	})
	return view
}

// BuildViews computes every available categorical view over the filtered
// table. Views are independent, so they fan out across a bounded worker
// group; filter changes re-run only this stage, never ingestion or the
// join.
func BuildViews(ctx context.Context, res *internal.Result, f Filter, sortKey SortKey) ([]internal.AggregateView, error) {
	filtered := ApplyFilter(res.Table, f)
	dims := CategoryDimensions()

	views := make([]internal.AggregateView, len(dims))
	var wg errgroup.Group
	wg.SetLimit(maxViewWorkers)

	for i, dim := range dims {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			views[i] = AggregateBy(filtered, dim.Field, dim.Label, res.Features.Denominator, sortKey)
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}

	out := make([]internal.AggregateView, 0, len(views))
	for _, v := range views {
		if len(v.Rows) > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// TopProducts returns the records with the highest sales, descending.
func TopProducts(t internal.Table, limit int) []internal.Record {
	sorted := make([]internal.Record, len(t.Rows))
	copy(sorted, t.Rows)
	slices.SortFunc(sorted, func(a, b internal.Record) int {
		sa, sb := a.Measure(internal.FieldSalesQty), b.Measure(internal.FieldSalesQty)
		if sa > sb {
			return -1
		}
		if sa < sb {
			return 1
		}
		return 0
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func sortRows(rows []internal.AggregateRow, key SortKey) {
	value := func(r internal.AggregateRow) float64 {
		switch key {
		case SortByBalance:
			return r.BalanceQty
		case SortByPctSold:
			return r.PctSold
		case SortByProducts:
			return float64(r.ProductCount)
		default:
			return r.SalesQty
		}
	}
	slices.SortFunc(rows, func(a, b internal.AggregateRow) int {
		va, vb := value(a), value(b)
		if va > vb {
			return -1
		}
		if va < vb {
			return 1
		}
		return strings.Compare(a.Dimension, b.Dimension)
	})
}
