package m_event

import (
	"time"

	"cloud.google.com/go/spanner"
)

// BuildInsertMap constructs the values of a freshly appended event. created_at
// is filled by Spanner at commit.
func BuildInsertMap(aggregateID string, sequence int64, eventID, aggregateType, eventType, payload string,
	occurredAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		ColAggregateID:   aggregateID,
		ColSequence:      sequence,
		ColEventID:       eventID,
		ColAggregateType: aggregateType,
		ColEventType:     eventType,
		ColPayload:       payload,
		ColOccurredAt:    occurredAt,
		ColStatus:        StatusPending,
		ColCreatedAt:     spanner.CommitTimestamp,
		ColPublishedAt:   nil,
	}
}

// InsertMutation builds an Insert mutation, failing on a duplicate stream position.
func InsertMutation(values map[string]interface{}) *spanner.Mutation {
	cols := make([]string, 0, len(values))
	vals := make([]interface{}, 0, len(values))
	for c, v := range values {
		cols = append(cols, c)
		vals = append(vals, v)
	}
	return spanner.Insert(TableName, cols, vals)
}

// MarkPublishedMutation flips one event to published.
func MarkPublishedMutation(aggregateID string, sequence int64, publishedAt time.Time) *spanner.Mutation {
	return spanner.Update(TableName,
		[]string{ColAggregateID, ColSequence, ColStatus, ColPublishedAt},
		[]interface{}{aggregateID, sequence, StatusPublished, publishedAt},
	)
}
