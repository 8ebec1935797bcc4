package repo

import (
	"cloud.google.com/go/spanner"

	domain "github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/models/m_product"
)

// ProductRepo is the Spanner implementation of the write-side repository.
// It returns *spanner.Mutation objects but never applies them.
type ProductRepo struct{}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{}
}

// head is the stream position p reaches once its uncommitted events land.
func head(p *domain.Product) int64 {
	return p.Version() + int64(len(p.UncommittedEvents()))
}

func discountColumns(d *domain.Discount) *m_product.Discount {
	if d == nil {
		return nil
	}
	return &m_product.Discount{Bps: d.Bps(), Start: d.StartDate().UTC(), End: d.EndDate().UTC()}
}

// buildInsertValues constructs the values map used for insertion.
// It's unexported so tests in the same package can inspect the map without
// relying on spanner.Mutation internals.
func buildInsertValues(p *domain.Product) map[string]interface{} {
	var description *string
	if d := p.Description(); d != "" {
		description = &d
	}
	return m_product.BuildInsertMap(p.ID(), p.Name(), description, p.Category(),
		p.BasePrice().Cents(), discountColumns(p.Discount()), string(p.Status()), head(p),
		p.CreatedAt().UTC(), p.UpdatedAt().UTC())
}

// buildUpdateValues returns the dirty columns of p, or nil when nothing changed.
func buildUpdateValues(p *domain.Product) map[string]interface{} {
	if p == nil || p.Changes() == nil || !p.Changes().HasChanges() {
		return nil
	}

	updates := map[string]interface{}{}

	if p.Changes().Dirty(domain.FieldName) {
		updates[m_product.ColName] = p.Name()
	}
	if p.Changes().Dirty(domain.FieldDescription) {
		if p.Description() == "" {
			updates[m_product.ColDescription] = nil
		} else {
			updates[m_product.ColDescription] = p.Description()
		}
	}
	if p.Changes().Dirty(domain.FieldCategory) {
		updates[m_product.ColCategory] = p.Category()
	}
	if p.Changes().Dirty(domain.FieldBasePrice) {
		updates[m_product.ColBasePriceCents] = p.BasePrice().Cents()
	}
	if p.Changes().Dirty(domain.FieldDiscount) {
		if d := discountColumns(p.Discount()); d != nil {
			updates[m_product.ColDiscountBps] = d.Bps
			updates[m_product.ColDiscountStartDate] = d.Start
			updates[m_product.ColDiscountEndDate] = d.End
		} else {
			updates[m_product.ColDiscountBps] = nil
			updates[m_product.ColDiscountStartDate] = nil
			updates[m_product.ColDiscountEndDate] = nil
		}
	}
	if p.Changes().Dirty(domain.FieldStatus) {
		updates[m_product.ColStatus] = string(p.Status())
	}

	if len(updates) == 0 {
		return nil
	}

	updates[m_product.ColVersion] = head(p)
	updates[m_product.ColUpdatedAt] = p.UpdatedAt().UTC()
	return updates
}

// InsertMut builds an Insert mutation for a new product.
func (r *ProductRepo) InsertMut(p *domain.Product) *spanner.Mutation {
	return m_product.InsertMutation(buildInsertValues(p))
}

// UpdateMut builds an Update mutation using the aggregate's ChangeTracker.
// It updates only dirty fields and always stamps version and updated_at when
// there are changes.
func (r *ProductRepo) UpdateMut(p *domain.Product) *spanner.Mutation {
	updates := buildUpdateValues(p)
	if updates == nil {
		return nil
	}
	return m_product.UpdateMutation(p.ID(), updates)
}
