package m_product

// Field constants for the products snapshot table.
const (
	TableName = "products"

	ColProductID         = "product_id"
	ColName              = "name"
	ColDescription       = "description"
	ColCategory          = "category"
	ColBasePriceCents    = "base_price_cents"
	ColDiscountBps       = "discount_bps"
	ColDiscountStartDate = "discount_start_date"
	ColDiscountEndDate   = "discount_end_date"
	ColStatus            = "status"
	ColVersion           = "version"
	ColCreatedAt         = "created_at"
	ColUpdatedAt         = "updated_at"
)

// Columns lists every column in read order.
var Columns = []string{
	ColProductID, ColName, ColDescription, ColCategory, ColBasePriceCents,
	ColDiscountBps, ColDiscountStartDate, ColDiscountEndDate, ColStatus,
	ColVersion, ColCreatedAt, ColUpdatedAt,
}
