package m_event

// Field constants for the events table. The primary key is
// (aggregate_id, sequence), so two writers racing for the same stream
// position cannot both commit.
const (
	TableName = "events"

	ColAggregateID   = "aggregate_id"
	ColSequence      = "sequence"
	ColEventID       = "event_id"
	ColAggregateType = "aggregate_type"
	ColEventType     = "event_type"
	ColPayload       = "payload"
	ColOccurredAt    = "occurred_at"
	ColStatus        = "status"
	ColCreatedAt     = "created_at"
	ColPublishedAt   = "published_at"

	StatusPending   = "pending"
	StatusPublished = "published"
)

// Columns lists every column in read order.
var Columns = []string{
	ColAggregateID, ColSequence, ColEventID, ColAggregateType, ColEventType,
	ColPayload, ColOccurredAt, ColStatus, ColCreatedAt, ColPublishedAt,
}
