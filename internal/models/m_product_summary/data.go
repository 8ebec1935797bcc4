package m_product_summary

import (
	"time"

	"cloud.google.com/go/spanner"
)

// BuildUpsertMap prepares a summary row. effectivePriceCents is left out
// when nil so an earlier value survives.
func BuildUpsertMap(productID, name, category, status string, basePriceCents int64,
	effectivePriceCents *int64, lastSequence int64, updatedAt time.Time) map[string]interface{} {
	m := map[string]interface{}{
		ColProductID:      productID,
		ColName:           name,
		ColCategory:       category,
		ColStatus:         status,
		ColBasePriceCents: basePriceCents,
		ColLastSequence:   lastSequence,
		ColUpdatedAt:      updatedAt,
	}
	if effectivePriceCents != nil {
		m[ColEffectivePriceCents] = *effectivePriceCents
	}
	return m
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
