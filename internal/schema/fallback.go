package schema

import "sheetsync/internal/model"

func col(name, typ string, nullable bool) model.ColumnInfo {
	return model.ColumnInfo{Name: name, Type: typ, Nullable: nullable}
}

// fallbackColumns is the hardcoded column list per known destination table,
// used as a degraded-mode substitute when the live schema lookup fails
// twice, so the mapping flow stays usable while the schema endpoint is
// down. It tracks the production schema by hand; adding a destination table
// means adding an entry here.
var fallbackColumns = map[string][]model.ColumnInfo{
	"reservations": {
		col("id", "text", false),
		col("customer_name", "text", false),
		col("customer_phone", "text", true),
		col("customer_email", "text", true),
		col("product_name", "text", true),
		col("tour_date", "date", true),
		col("pickup_location", "text", true),
		col("adults", "integer", true),
		col("children", "integer", true),
		col("infants", "integer", true),
		col("total_price", "numeric", true),
		col("status", "text", true),
		col("memo", "text", true),
		col("created_at", "timestamp", true),
	},
	"customers": {
		col("id", "text", false),
		col("customer_name", "text", false),
		col("customer_phone", "text", true),
		col("customer_email", "text", true),
		col("created_at", "timestamp", true),
	},
	"tours": {
		col("id", "text", false),
		col("product_name", "text", false),
		col("tour_date", "date", true),
		col("guide_name", "text", true),
		col("vehicle_no", "text", true),
		col("status", "text", true),
	},
	"team_members": {
		col("id", "text", false),
		col("name", "text", false),
		col("role", "text", true),
		col("languages", "text", true),
		col("active", "integer", true),
	},
	"vehicles": {
		col("id", "text", false),
		col("vehicle_no", "text", false),
		col("capacity", "integer", true),
		col("driver_name", "text", true),
	},
	"tour_assignments": {
		col("id", "text", false),
		col("tour_id", "text", false),
		col("member_id", "text", true),
		col("vehicle_id", "text", true),
		col("assigned_at", "timestamp", true),
	},
}

// FallbackColumns returns the static column list for table, or nil when the
// table has no fallback.
func FallbackColumns(table string) []model.ColumnInfo {
	return fallbackColumns[table]
}

// FallbackTables lists the tables that have a hardcoded column list.
func FallbackTables() []string {
	tables := make([]string, 0, len(fallbackColumns))
	for t := range fallbackColumns {
		tables = append(tables, t)
	}
	return tables
}
