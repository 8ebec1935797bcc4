package m_product

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Discount holds the nullable discount columns.
type Discount struct {
	Bps   int64
	Start time.Time
	End   time.Time
}

// BuildInsertMap prepares the full column set of a product snapshot.
// description and discount may be nil.
func BuildInsertMap(productID, name string, description *string, category string,
	basePriceCents int64, discount *Discount, status string, version int64,
	createdAt, updatedAt time.Time) map[string]interface{} {

	m := map[string]interface{}{
		ColProductID:         productID,
		ColName:              name,
		ColDescription:       nil,
		ColCategory:          category,
		ColBasePriceCents:    basePriceCents,
		ColDiscountBps:       nil,
		ColDiscountStartDate: nil,
		ColDiscountEndDate:   nil,
		ColStatus:            status,
		ColVersion:           version,
		ColCreatedAt:         createdAt,
		ColUpdatedAt:         updatedAt,
	}
	if description != nil {
		m[ColDescription] = *description
	}
	if discount != nil {
		m[ColDiscountBps] = discount.Bps
		m[ColDiscountStartDate] = discount.Start
		m[ColDiscountEndDate] = discount.End
	}
	return m
}

// InsertMutation builds an Insert mutation from a values map. It fails the
// commit if the product already exists.
func InsertMutation(values map[string]interface{}) *spanner.Mutation {
	cols, vals := split(values)
	return spanner.Insert(TableName, cols, vals)
}

// UpdateMutation builds an Update mutation for productID touching only the
// given columns.
func UpdateMutation(productID string, updates map[string]interface{}) *spanner.Mutation {
	cols := []string{ColProductID}
	vals := []interface{}{productID}
	for c, v := range updates {
		if c == ColProductID {
			continue
		}
		cols = append(cols, c)
		vals = append(vals, v)
	}
	return spanner.Update(TableName, cols, vals)
}

func split(values map[string]interface{}) ([]string, []interface{}) {
	cols := make([]string, 0, len(values))
	vals := make([]interface{}, 0, len(values))
	for col, v := range values {
		cols = append(cols, col)
		vals = append(vals, v)
	}
	return cols, vals
}
