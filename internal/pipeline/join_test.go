package pipeline

import (
	"testing"

	"stocklens/internal"
	"stocklens/internal/util"
)

func balanceRec(style string, year, month int, qty float64) internal.Record {
	return internal.Record{
		StyleID:  style,
		Year:     util.IntPtr(year),
		Month:    util.IntPtr(month),
		Measures: map[internal.Field]float64{internal.FieldBalanceQty: qty},
		Attrs:    map[internal.Field]string{},
	}
}

func balanceTable(rows ...internal.Record) internal.Table {
	return internal.Table{
		Role:   internal.RoleBalance,
		Fields: []internal.Field{internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldBalanceQty},
		Rows:   rows,
	}
}

func salesTable(rows ...internal.Record) internal.Table {
	return internal.Table{
		Role:   internal.RoleSales,
		Fields: []internal.Field{internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldSalesQty},
		Rows:   rows,
	}
}

// Balance (S1,100),(S2,50); Sales duplicated (S1,30),(S1,20). After
// collapsing, the join yields S1 bal=100 sales=50 and S2 bal=50 sales=0.
func TestJoinAfterCollapse(t *testing.T) {
	balance := balanceTable(
		balanceRec("S1", 2024, 1, 100),
		balanceRec("S2", 2024, 1, 50),
	)
	sales := salesTable(
		salesRec("S1", 2024, 1, 30, nil),
		salesRec("S1", 2024, 1, 20, nil),
	)

	collapsed, dups := Collapse(sales, false)
	if dups != 2 || len(collapsed.Rows) != 1 {
		t.Fatalf("collapse: dups=%d rows=%d", dups, len(collapsed.Rows))
	}

	joined, stats := LeftJoin(balance, collapsed)
	if len(joined.Rows) != 2 {
		t.Fatalf("joined rows = %d", len(joined.Rows))
	}
	if stats.Matched != 1 || stats.LeftOnly != 1 || stats.RightOnly != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	joined = ApplyMetrics(joined, internal.FieldBalanceQty, EfficiencyThresholds{LowMax: 30, MediumMax: 60, HighMax: 100})

	s1 := joined.Rows[0]
	if s1.Measure(internal.FieldBalanceQty) != 100 || s1.Measure(internal.FieldSalesQty) != 50 {
		t.Fatalf("S1 = %+v", s1.Measures)
	}
	if s1.Measure(internal.FieldPctSold) != 50 {
		t.Fatalf("S1 pct = %v", s1.Measure(internal.FieldPctSold))
	}

	s2 := joined.Rows[1]
	if s2.Measure(internal.FieldSalesQty) != 0 || s2.Measure(internal.FieldPctSold) != 0 {
		t.Fatalf("S2 = %+v", s2.Measures)
	}
}

// Zero balance with recorded sales is not an error and not inf.
func TestJoinZeroBalancePolicy(t *testing.T) {
	joined, _ := LeftJoin(
		balanceTable(balanceRec("S3", 2024, 2, 0)),
		salesTable(salesRec("S3", 2024, 2, 10, nil)),
	)
	joined = ApplyMetrics(joined, internal.FieldBalanceQty, EfficiencyThresholds{LowMax: 30, MediumMax: 60, HighMax: 100})

	r := joined.Rows[0]
	if r.Measure(internal.FieldSalesQty) != 10 {
		t.Fatalf("sales = %v", r.Measure(internal.FieldSalesQty))
	}
	if r.Measure(internal.FieldPctSold) != 0 {
		t.Fatalf("pct = %v", r.Measure(internal.FieldPctSold))
	}
	if eff, _ := r.Attr(internal.FieldEfficiency); eff != EffNoBaseline {
		t.Fatalf("efficiency = %q", eff)
	}
}

// Sales with no matching balance row vanish from the output; their key is
// counted for diagnostics.
func TestJoinDropsRightOnlyRows(t *testing.T) {
	joined, stats := LeftJoin(
		balanceTable(balanceRec("S1", 2024, 3, 10)),
		salesTable(
			salesRec("S1", 2024, 3, 2, nil),
			salesRec("S9", 2024, 3, 5, nil),
		),
	)

	if len(joined.Rows) != 1 {
		t.Fatalf("joined rows = %d", len(joined.Rows))
	}
	for _, rec := range joined.Rows {
		if rec.StyleID == "S9" {
			t.Fatal("right-only row leaked into output")
		}
	}
	if stats.RightOnly != 1 {
		t.Fatalf("rightOnly = %d", stats.RightOnly)
	}
}

// Every left row appears exactly once when the right side is deduplicated.
func TestJoinFanOutFree(t *testing.T) {
	balance := balanceTable(
		balanceRec("S1", 2024, 1, 10),
		balanceRec("S2", 2024, 1, 20),
		balanceRec("S3", 2024, 2, 30),
		balanceRec("S4", 2025, 1, 40),
	)
	sales, _ := Collapse(salesTable(
		salesRec("S1", 2024, 1, 1, nil),
		salesRec("S3", 2024, 2, 3, nil),
		salesRec("S3", 2024, 2, 4, nil),
	), false)

	joined, _ := LeftJoin(balance, sales)
	if len(joined.Rows) != len(balance.Rows) {
		t.Fatalf("fan-out: got %d rows, want %d", len(joined.Rows), len(balance.Rows))
	}
}

func TestJoinCarriesSalesAttributes(t *testing.T) {
	sales := internal.Table{
		Role:   internal.RoleSales,
		Fields: []internal.Field{internal.FieldStyleID, internal.FieldYear, internal.FieldMonth, internal.FieldSalesQty, internal.FieldBrand},
		Rows: []internal.Record{
			salesRec("S1", 2024, 1, 5, map[internal.Field]string{internal.FieldBrand: "Acme"}),
		},
	}

	joined, _ := LeftJoin(balanceTable(balanceRec("S1", 2024, 1, 10), balanceRec("S2", 2024, 1, 10)), sales)
	if !joined.HasField(internal.FieldBrand) {
		t.Fatalf("joined fields = %v", joined.Fields)
	}
	if brand, _ := joined.Rows[0].Attr(internal.FieldBrand); brand != "Acme" {
		t.Fatalf("brand = %q", brand)
	}
	if _, ok := joined.Rows[1].Attr(internal.FieldBrand); ok {
		t.Fatal("unmatched row must not get right-side attributes")
	}
}
