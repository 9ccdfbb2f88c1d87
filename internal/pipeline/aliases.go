package pipeline

import "stocklens/internal"

// FieldSpec maps one canonical field to the raw-header spellings that count
// as a match, in preference order. Matching is case-insensitive and
// whitespace-trimmed, so alias entries differ only where exports spell the
// header differently, not where they case it differently.
type FieldSpec struct {
	Field    internal.Field
	Aliases  []string
	Required bool
}

// quantityFields are the measures that zero-fill on parse failure. Absence
// of a recorded quantity means "nothing moved", not missing data.
var quantityFields = map[internal.Field]bool{
	internal.FieldBalanceQty:   true,
	internal.FieldSalesQty:     true,
	internal.FieldOpeningStock: true,
	internal.FieldClosingStock: true,
}

// priceFields parse as numbers but stay absent when unparseable.
var priceFields = map[internal.Field]bool{
	internal.FieldMRP:          true,
	internal.FieldSellingPrice: true,
	internal.FieldFOB:          true,
}

// BalanceSpecs is the alias table for the Balance sheet role.
func BalanceSpecs() []FieldSpec {
	return []FieldSpec{
		{Field: internal.FieldStyleID, Aliases: []string{"Style_ID", "STYLE_ID", "StyleID"}, Required: true},
		{Field: internal.FieldYear, Aliases: []string{"YEAR", "Year"}, Required: true},
		{Field: internal.FieldMonth, Aliases: []string{"MONTH", "Month"}, Required: true},
		{Field: internal.FieldBalanceQty, Aliases: []string{"Balance_QTY", "BALANCE_QTY", "Balance", "Qty"}, Required: true},
		{Field: internal.FieldClosingStock, Aliases: []string{"Closing_Stock", "Closing Stock", "CLOSING_STOCK"}},
		{Field: internal.FieldDate, Aliases: []string{"Date", "DATE"}},
	}
}

// SalesSpecs is the alias table for the Sales sheet role. STYLE_ID is
// required at this level; the SKU fallback is decided by the caller after
// resolution (see ProcessingService).
func SalesSpecs() []FieldSpec {
	return []FieldSpec{
		{Field: internal.FieldStyleID, Aliases: []string{"Style_ID", "STYLE_ID", "StyleID"}, Required: true},
		{Field: internal.FieldYear, Aliases: []string{"YEAR", "Year"}, Required: true},
		{Field: internal.FieldMonth, Aliases: []string{"MONTH", "Month"}, Required: true},
		{Field: internal.FieldSalesQty, Aliases: []string{"Qty", "QTY", "Quantity", "Sales_QTY"}, Required: true},
		{Field: internal.FieldOpeningStock, Aliases: []string{"Opening_Stock", "Opening Stock", "OPENING_STOCK", "Op_Stock"}},
		{Field: internal.FieldSKU, Aliases: []string{"SKU", "Sku"}},
		{Field: internal.FieldSubcategory, Aliases: []string{"Subcategory", "SUBCATEGORY", "Sub_Category"}},
		{Field: internal.FieldSeason, Aliases: []string{"Season", "SEASON"}},
		{Field: internal.FieldBrand, Aliases: []string{"Brand", "BRAND"}},
		{Field: internal.FieldColor, Aliases: []string{"Color", "COLOR"}},
		{Field: internal.FieldHeelType, Aliases: []string{"Heel_Type 1", "Heel Type 1", "HEEL_TYPE_1", "Heel_Type_1"}},
		// "Maketplace" is how several real exports spell it.
		{Field: internal.FieldMarketplace, Aliases: []string{"Maketplace", "MAKETPLACE", "Marketplace", "MARKETPLACE"}},
		{Field: internal.FieldMRP, Aliases: []string{"MRP", "Mrp"}},
		{Field: internal.FieldSellingPrice, Aliases: []string{"SP", "Sp", "Selling_Price"}},
		{Field: internal.FieldSize, Aliases: []string{"Size", "SIZE"}},
		{Field: internal.FieldFOB, Aliases: []string{"FOB", "Fob"}},
		{Field: internal.FieldDate, Aliases: []string{"Date", "DATE"}},
	}
}
