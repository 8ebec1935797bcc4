package m_product_activity

// Field constants for the asynchronous product_activity read model.
// Rows are keyed by stream position so a redelivered event rewrites the same row.
const (
	TableName = "product_activity"

	ColProductID  = "product_id"
	ColSequence   = "sequence"
	ColEventID    = "event_id"
	ColEventType  = "event_type"
	ColSummary    = "summary"
	ColOccurredAt = "occurred_at"
	ColRecordedAt = "recorded_at"
)

var Columns = []string{
	ColProductID, ColSequence, ColEventID, ColEventType, ColSummary, ColOccurredAt, ColRecordedAt,
}
