package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens/internal"
	"stocklens/internal/util"
)

func row(style string, year, month int, balance, sales float64, attrs map[internal.Field]string) internal.Record {
	if attrs == nil {
		attrs = map[internal.Field]string{}
	}
	if name, ok := internal.MonthNames[month]; ok {
		attrs[internal.FieldMonthName] = name
	}
	return internal.Record{
		StyleID: style,
		Year:    util.IntPtr(year),
		Month:   util.IntPtr(month),
		Measures: map[internal.Field]float64{
			internal.FieldBalanceQty: balance,
			internal.FieldSalesQty:   sales,
		},
		Attrs: attrs,
	}
}

func joinedTable(rows ...internal.Record) internal.Table {
	return internal.Table{
		Role: internal.RoleJoined,
		Fields: []internal.Field{
			internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldMonthName,
			internal.FieldBalanceQty, internal.FieldSalesQty, internal.FieldBrand,
		},
		Rows: rows,
	}
}

func brand(name string) map[internal.Field]string {
	return map[internal.Field]string{internal.FieldBrand: name}
}

func TestAggregateByRecomputesRatioFromSums(t *testing.T) {
	// Per-row percentages are 10% and 100%; the aggregate must be
	// 20/110, not their average.
	tbl := joinedTable(
		row("S1", 2024, 1, 100, 10, brand("Acme")),
		row("S2", 2024, 1, 10, 10, brand("Acme")),
	)

	view := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortBySales)
	require.Len(t, view.Rows, 1)

	got := view.Rows[0]
	assert.Equal(t, "Acme", got.Dimension)
	assert.Equal(t, float64(110), got.BalanceQty)
	assert.Equal(t, float64(20), got.SalesQty)
	assert.InDelta(t, 18.18, got.PctSold, 0.01)
	assert.Equal(t, 2, got.ProductCount)
	assert.Equal(t, float64(10), got.AvgSalesPerProduct)
}

func TestAggregateByCountsDistinctStyles(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 10, 1, brand("Acme")),
		row("S1", 2024, 2, 10, 2, brand("Acme")),
		row("S2", 2024, 1, 10, 3, brand("Acme")),
	)

	view := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortBySales)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, 2, view.Rows[0].ProductCount)
}

func TestAggregateByAbsentDimensionIsEmpty(t *testing.T) {
	tbl := joinedTable(row("S1", 2024, 1, 10, 5, nil))
	tbl.Fields = tbl.Fields[:6] // schema without BRAND

	view := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortBySales)
	assert.Empty(t, view.Rows)
}

func TestAggregateBySortsDescending(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 10, 5, brand("Small")),
		row("S2", 2024, 1, 10, 50, brand("Big")),
		row("S3", 2024, 1, 10, 20, brand("Mid")),
	)

	view := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortBySales)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, []string{"Big", "Mid", "Small"},
		[]string{view.Rows[0].Dimension, view.Rows[1].Dimension, view.Rows[2].Dimension})

	byBalance := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortByBalance)
	// Equal balances fall back to dimension order.
	assert.Equal(t, "Big", byBalance.Rows[0].Dimension)
}

func TestAggregationConservesTotals(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 100, 10, brand("Acme")),
		row("S2", 2024, 1, 50, 20, brand("Zed")),
		row("S3", 2024, 2, 25, 5, brand("Acme")),
	)

	var total float64
	for _, r := range tbl.Rows {
		total += r.Measure(internal.FieldSalesQty)
	}

	view := AggregateBy(tbl, internal.FieldBrand, "Brand", internal.FieldBalanceQty, SortBySales)
	var aggregated float64
	for _, r := range view.Rows {
		aggregated += r.SalesQty
	}
	assert.Equal(t, total, aggregated)
}

func TestApplyFilter(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 10, 1, brand("Acme")),
		row("S2", 2024, 2, 10, 2, brand("Acme")),
		row("S3", 2025, 1, 10, 3, brand("Zed")),
	)

	byYear := ApplyFilter(tbl, Filter{Year: util.IntPtr(2024)})
	assert.Len(t, byYear.Rows, 2)

	byBoth := ApplyFilter(tbl, Filter{Year: util.IntPtr(2024), Month: util.IntPtr(2)})
	require.Len(t, byBoth.Rows, 1)
	assert.Equal(t, "S2", byBoth.Rows[0].StyleID)

	byAttr := ApplyFilter(tbl, Filter{Attr: internal.FieldBrand, AttrValue: "Zed"})
	require.Len(t, byAttr.Rows, 1)
	assert.Equal(t, "S3", byAttr.Rows[0].StyleID)
}

func TestEmptyFilterResultYieldsEmptyViews(t *testing.T) {
	tbl := joinedTable(row("S1", 2024, 1, 10, 1, brand("Acme")))
	res := &internal.Result{
		Table:    tbl,
		Features: internal.Features{Denominator: internal.FieldBalanceQty},
	}

	views, err := BuildViews(context.Background(), res, Filter{Year: util.IntPtr(1999)}, SortBySales)
	require.NoError(t, err)
	assert.Empty(t, views)

	series := TimeSeries(ApplyFilter(tbl, Filter{Year: util.IntPtr(1999)}), internal.FieldBalanceQty)
	assert.Empty(t, series.Rows)
}

func TestBuildViewsSkipsUnavailableDimensions(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 10, 1, brand("Acme")),
		row("S2", 2024, 1, 10, 2, brand("Zed")),
	)
	res := &internal.Result{
		Table:    tbl,
		Features: internal.Features{Denominator: internal.FieldBalanceQty},
	}

	views, err := BuildViews(context.Background(), res, Filter{}, SortBySales)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, internal.FieldBrand, views[0].Field)
	assert.Equal(t, "Brand", views[0].Label)
}

func TestTimeSeriesOrdersByPeriod(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 11, 10, 1, nil),
		row("S2", 2024, 2, 10, 2, nil),
		row("S3", 2023, 12, 10, 3, nil),
	)

	series := TimeSeries(tbl, internal.FieldBalanceQty)
	require.Len(t, series.Rows, 3)
	assert.Equal(t, "2023-12", series.Rows[0].Dimension)
	assert.Equal(t, "2024-02", series.Rows[1].Dimension)
	assert.Equal(t, "2024-11", series.Rows[2].Dimension)
}

func TestTimeSeriesSkipsUnparsedPeriods(t *testing.T) {
	noPeriod := internal.Record{
		StyleID:  "S9",
		Measures: map[internal.Field]float64{internal.FieldSalesQty: 100},
		Attrs:    map[internal.Field]string{},
	}
	tbl := joinedTable(row("S1", 2024, 1, 10, 1, nil))
	tbl.Rows = append(tbl.Rows, noPeriod)

	series := TimeSeries(tbl, internal.FieldBalanceQty)
	assert.Len(t, series.Rows, 1)
}

func TestTopProducts(t *testing.T) {
	tbl := joinedTable(
		row("S1", 2024, 1, 10, 5, nil),
		row("S2", 2024, 1, 10, 50, nil),
		row("S3", 2024, 1, 10, 20, nil),
	)

	top := TopProducts(tbl, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "S2", top[0].StyleID)
	assert.Equal(t, "S3", top[1].StyleID)

	// The input order is untouched.
	assert.Equal(t, "S1", tbl.Rows[0].StyleID)
}
