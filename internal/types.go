package internal

import "time"

// SheetRole names a workbook sheet by its business role. Sheet lookup is
// case-sensitive; these are the exact sheet names expected in the upload.
type SheetRole string

const (
	RoleBalance SheetRole = "Balance"
	RoleSales   SheetRole = "Sales"
	RoleJoined  SheetRole = "Joined"
)

// Field is a canonical column name, independent of the spelling used in the
// uploaded sheet.
type Field string

const (
	FieldStyleID      Field = "STYLE_ID"
	FieldYear         Field = "YEAR"
	FieldMonth        Field = "MONTH"
	FieldMonthName    Field = "MONTH_NAME"
	FieldBalanceQty   Field = "BALANCE_QTY"
	FieldSalesQty     Field = "SALES_QTY"
	FieldOpeningStock Field = "OPENING_STOCK"
	FieldClosingStock Field = "CLOSING_STOCK"
	FieldPctSold      Field = "PCT_SOLD"
	FieldEfficiency   Field = "EFFICIENCY"
	FieldSKU          Field = "SKU"
	FieldSubcategory  Field = "SUBCATEGORY"
	FieldSeason       Field = "SEASON"
	FieldBrand        Field = "BRAND"
	FieldColor        Field = "COLOR"
	FieldHeelType     Field = "HEEL_TYPE_1"
	FieldMarketplace  Field = "MARKETPLACE"
	FieldSize         Field = "SIZE"
	FieldMRP          Field = "MRP"
	FieldSellingPrice Field = "SP"
	FieldFOB          Field = "FOB"
	FieldDate         Field = "DATE"
)

// MonthNames maps month numbers to display names. Values outside 1-12 have
// no name and stay unnamed on the record.
var MonthNames = map[int]string{
	1: "January", 2: "February", 3: "March", 4: "April",
	5: "May", 6: "June", 7: "July", 8: "August",
	9: "September", 10: "October", 11: "November", 12: "December",
}

// RawTable is one sheet as read from the workbook: untyped cells, headers
// with whatever case and spacing the export used. Lives only through
// ingestion of one upload.
type RawTable struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Record is one row of a canonical table. Year and Month are nil when the
// source cell did not parse. Measures holds every numeric field present for
// this table (quantities, prices, derived ratios); Attrs holds descriptive
// text fields. Optional columns absent from the source are simply absent
// from the maps.
type Record struct {
	StyleID  string
	Year     *int
	Month    *int
	Measures map[Field]float64
	Attrs    map[Field]string
}

// Measure returns the named measure, zero when absent.
func (r Record) Measure(f Field) float64 {
	return r.Measures[f]
}

// Attr returns the named attribute and whether it is present.
func (r Record) Attr(f Field) (string, bool) {
	v, ok := r.Attrs[f]
	return v, ok
}

// Key is the composite identity of a record. Nil year/month map to -1 so
// unparseable periods still group deterministically. Marketplace stays empty
// unless the key was extended with it.
type Key struct {
	StyleID     string
	Year        int
	Month       int
	Marketplace string
}

// KeyWith builds the record's composite key, optionally extended by the
// marketplace attribute.
func (r Record) KeyWith(marketplace bool) Key {
	k := Key{StyleID: r.StyleID, Year: -1, Month: -1}
	if r.Year != nil {
		k.Year = *r.Year
	}
	if r.Month != nil {
		k.Month = *r.Month
	}
	if marketplace {
		k.Marketplace = r.Attrs[FieldMarketplace]
	}
	return k
}

// JoinKey is the plain (style, year, month) key used by the join engine.
func (r Record) JoinKey() Key {
	return r.KeyWith(false)
}

// Table is a canonical table: fixed field names, coerced types. Fields keeps
// the canonical column order for display and export.
type Table struct {
	Role   SheetRole
	Fields []Field
	Rows   []Record
}

// HasField reports whether the table schema carries the canonical field.
func (t Table) HasField(f Field) bool {
	for _, have := range t.Fields {
		if have == f {
			return true
		}
	}
	return false
}

// NormalizeStats counts per-cell parse outcomes. Individual bad cells are
// not reported; the fill policy applies silently and only these aggregates
// surface to the operator.
type NormalizeStats struct {
	Rows          int `json:"rows"`
	BadYears      int `json:"badYears"`
	BadMonths     int `json:"badMonths"`
	ZeroFilledQty int `json:"zeroFilledQty"`
}

// JoinStats describes one left-outer join. RightOnly counts sales keys that
// had no balance row and were dropped.
type JoinStats struct {
	Matched   int `json:"matched"`
	LeftOnly  int `json:"leftOnly"`
	RightOnly int `json:"rightOnly"`
}

// Features records what the feature-detection pass found in the resolved
// schema; it selects which pipeline path runs.
type Features struct {
	TwoSheet       bool  `json:"twoSheet"`
	Denominator    Field `json:"denominator"`
	MarketplaceKey bool  `json:"marketplaceKey"`
	StyleFromSKU   bool  `json:"styleFromSku"`
}

// Summary is the headline block consumed by the presentation layer.
type Summary struct {
	BalanceRecords   int     `json:"balanceRecords"`
	SalesRecords     int     `json:"salesRecords"`
	TotalBalanceQty  float64 `json:"totalBalanceQty"`
	TotalSalesQty    float64 `json:"totalSalesQty"`
	UniqueProducts   int     `json:"uniqueProducts"`
	PctSold          float64 `json:"pctSold"`
	DuplicateBalance int     `json:"duplicateBalanceRows"`
	DuplicateSales   int     `json:"duplicateSalesRows"`
	MatchedRecords   int     `json:"matchedRecords"`
	NoSalesRecords   int     `json:"noSalesRecords"`
	LeftOnlyKeys     int     `json:"leftOnlyKeys"`
	RightOnlyKeys    int     `json:"rightOnlyKeys"`
	MaxPctSold       float64 `json:"maxPctSold"`
	MinPctSold       float64 `json:"minPctSold"`
}

// AggregateRow is one group of an aggregation view. PctSold is recomputed
// from the summed quantities, never averaged across rows.
type AggregateRow struct {
	Dimension          string  `json:"dimension"`
	BalanceQty         float64 `json:"balanceQty"`
	SalesQty           float64 `json:"salesQty"`
	ProductCount       int     `json:"productCount"`
	PctSold            float64 `json:"pctSold"`
	AvgSalesPerProduct float64 `json:"avgSalesPerProduct"`
}

// AggregateView is one dimension's aggregation with its display label.
type AggregateView struct {
	Field Field          `json:"field"`
	Label string         `json:"label"`
	Rows  []AggregateRow `json:"rows"`
}

// Result is the immutable outcome of one pipeline run. Everything the
// presentation layer shows derives from a completed Result; a failed run
// produces none.
type Result struct {
	FileName    string         `json:"fileName"`
	FileHash    string         `json:"fileHash"`
	ProcessedAt time.Time      `json:"processedAt"`
	Features    Features       `json:"features"`
	Table       Table          `json:"-"`
	Summary     Summary        `json:"summary"`
	Balance     NormalizeStats `json:"balanceStats"`
	Sales       NormalizeStats `json:"salesStats"`
	Join        JoinStats      `json:"joinStats"`
	Years       []int          `json:"years"`
	Months      []int          `json:"months"`
}
