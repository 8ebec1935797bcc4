package m_product_activity

import (
	"time"

	"cloud.google.com/go/spanner"
)

func BuildUpsertMap(productID string, sequence int64, eventID, eventType, summary string,
	occurredAt, recordedAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		ColProductID:  productID,
		ColSequence:   sequence,
		ColEventID:    eventID,
		ColEventType:  eventType,
		ColSummary:    summary,
		ColOccurredAt: occurredAt,
		ColRecordedAt: recordedAt,
	}
}

func UpsertMutation(values map[string]interface{}) *spanner.Mutation {
	cols := make([]string, 0, len(values))
	vals := make([]interface{}, 0, len(values))
	for c, v := range values {
		cols = append(cols, c)
		vals = append(vals, v)
	}
	return spanner.InsertOrUpdate(TableName, cols, vals)
}
