package m_product_summary

// Field constants for the synchronous product_summaries read model.
const (
	TableName = "product_summaries"

	ColProductID           = "product_id"
	ColName                = "name"
	ColCategory            = "category"
	ColStatus              = "status"
	ColBasePriceCents      = "base_price_cents"
	ColEffectivePriceCents = "effective_price_cents"
	ColLastSequence        = "last_sequence"
	ColUpdatedAt           = "updated_at"
)

var Columns = []string{
	ColProductID, ColName, ColCategory, ColStatus, ColBasePriceCents,
	ColEffectivePriceCents, ColLastSequence, ColUpdatedAt,
}
