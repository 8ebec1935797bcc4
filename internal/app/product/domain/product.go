package domain

import (
	"strings"
	"time"
)

// Field constants for change tracking
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldBasePrice   = "base_price"
	FieldDiscount    = "discount"
	FieldStatus      = "status"
)

// ProductStatus represents the lifecycle state of a product.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the aggregate root of the catalog. Every state change is
// expressed as a domain event; apply is the only place state moves, so a
// product replayed from its stream ends up identical to the one that
// raised the events.
type Product struct {
	id          string
	name        string
	description string
	category    string
	basePrice   Money
	discount    *Discount
	status      ProductStatus
	version     int64
	createdAt   time.Time
	updatedAt   time.Time

	isNew       bool
	changes     *ChangeTracker
	uncommitted []DomainEvent
}

// NewProduct creates a product in Draft status.
func NewProduct(id, name, description, category string, basePrice Money, now time.Time) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateProductCategory(category); err != nil {
		return nil, err
	}
	if err := validatePrice(basePrice); err != nil {
		return nil, err
	}

	p := &Product{isNew: true, changes: NewChangeTracker()}
	p.raise(&ProductCreatedEvent{
		ProductID:      id,
		Name:           strings.TrimSpace(name),
		Description:    strings.TrimSpace(description),
		Category:       strings.TrimSpace(category),
		BasePriceCents: basePrice.Cents(),
		CreatedAt:      now,
	})
	return p, nil
}

// ReconstructProduct rebuilds a product from its snapshot row. version is
// the head of its event stream.
func ReconstructProduct(
	id, name, description, category string,
	basePrice Money,
	discount *Discount,
	status ProductStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Product {
	return &Product{
		id:          id,
		name:        name,
		description: description,
		category:    category,
		basePrice:   basePrice,
		discount:    discount,
		status:      status,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		changes:     NewChangeTracker(),
	}
}

// Replay rebuilds a product from its full event history.
func Replay(history []DomainEvent) (*Product, error) {
	if len(history) == 0 {
		return nil, ErrProductNotFound
	}
	p := &Product{changes: NewChangeTracker()}
	for _, e := range history {
		p.apply(e)
		p.version++
	}
	p.changes.Clear()
	return p, nil
}

func (p *Product) ID() string                       { return p.id }
func (p *Product) Name() string                     { return p.name }
func (p *Product) Description() string              { return p.description }
func (p *Product) Category() string                 { return p.category }
func (p *Product) BasePrice() Money                 { return p.basePrice }
func (p *Product) Discount() *Discount              { return p.discount }
func (p *Product) Status() ProductStatus            { return p.status }
func (p *Product) CreatedAt() time.Time             { return p.createdAt }
func (p *Product) UpdatedAt() time.Time             { return p.updatedAt }
func (p *Product) Changes() *ChangeTracker          { return p.changes }
func (p *Product) IsNew() bool                      { return p.isNew }
func (p *Product) UncommittedEvents() []DomainEvent { return p.uncommitted }

// Version is the stream position of the last event this product has seen.
func (p *Product) Version() int64 {
	return p.version
}

// MarkCommitted records that the uncommitted events now occupy the stream
// up to version.
func (p *Product) MarkCommitted(version int64) {
	p.version = version
	p.uncommitted = nil
	p.isNew = false
	p.changes.Clear()
}

// UpdateDetails changes name, description and category. Empty arguments
// leave the field untouched.
func (p *Product) UpdateDetails(name, description, category string, now time.Time) error {
	next := &ProductUpdatedEvent{
		ProductID:   p.id,
		Name:        p.name,
		Description: p.description,
		Category:    p.category,
		UpdatedAt:   now,
	}

	if name != "" {
		if err := validateProductName(name); err != nil {
			return err
		}
		if trimmed := strings.TrimSpace(name); trimmed != p.name {
			next.Name = trimmed
			next.Changed = append(next.Changed, FieldName)
		}
	}
	if description != "" {
		if trimmed := strings.TrimSpace(description); trimmed != p.description {
			next.Description = trimmed
			next.Changed = append(next.Changed, FieldDescription)
		}
	}
	if category != "" {
		if err := validateProductCategory(category); err != nil {
			return err
		}
		if trimmed := strings.TrimSpace(category); trimmed != p.category {
			next.Category = trimmed
			next.Changed = append(next.Changed, FieldCategory)
		}
	}

	if len(next.Changed) > 0 {
		p.raise(next)
	}
	return nil
}

// UpdatePrice changes the base price.
func (p *Product) UpdatePrice(newPrice Money, now time.Time) error {
	if err := validatePrice(newPrice); err != nil {
		return err
	}
	if newPrice == p.basePrice {
		return nil
	}
	p.raise(&PriceChangedEvent{
		ProductID:     p.id,
		OldPriceCents: p.basePrice.Cents(),
		NewPriceCents: newPrice.Cents(),
		ChangedAt:     now,
	})
	return nil
}

func (p *Product) Activate(now time.Time) error {
	if p.status == ProductStatusActive {
		return ErrProductAlreadyActive
	}
	p.raise(&ProductActivatedEvent{ProductID: p.id, ActivatedAt: now})
	return nil
}

func (p *Product) Deactivate(now time.Time) error {
	if p.status == ProductStatusInactive {
		return ErrProductAlreadyInactive
	}
	p.raise(&ProductDeactivatedEvent{ProductID: p.id, DeactivatedAt: now})
	return nil
}

// ApplyDiscount applies a discount to an active product. A product holds at
// most one discount at a time.
func (p *Product) ApplyDiscount(discount *Discount, now time.Time) error {
	if p.status != ProductStatusActive {
		return ErrProductNotActive
	}
	if !discount.IsValidAt(now) {
		return ErrDiscountNotValid
	}
	if p.discount != nil {
		return ErrDiscountAlreadyExists
	}
	p.raise(&DiscountAppliedEvent{
		ProductID:   p.id,
		DiscountBps: discount.Bps(),
		StartDate:   discount.StartDate(),
		EndDate:     discount.EndDate(),
		AppliedAt:   now,
	})
	return nil
}

// RemoveDiscount drops the discount. Removing a missing discount is a no-op.
func (p *Product) RemoveDiscount(now time.Time) error {
	if p.discount == nil {
		return nil
	}
	p.raise(&DiscountRemovedEvent{ProductID: p.id, RemovedAt: now})
	return nil
}

// CalculateEffectivePrice returns the base price minus any discount valid at now.
func (p *Product) CalculateEffectivePrice(now time.Time) Money {
	if p.discount != nil && p.discount.IsValidAt(now) {
		return p.discount.ApplyTo(p.basePrice)
	}
	return p.basePrice
}

func (p *Product) IsActive() bool {
	return p.status == ProductStatusActive
}

func (p *Product) raise(e DomainEvent) {
	p.apply(e)
	p.uncommitted = append(p.uncommitted, e)
}

func (p *Product) apply(e DomainEvent) {
	switch e := e.(type) {
	case *ProductCreatedEvent:
		p.id = e.ProductID
		p.name = e.Name
		p.description = e.Description
		p.category = e.Category
		p.basePrice = Cents(e.BasePriceCents)
		p.status = ProductStatusDraft
		p.createdAt = e.CreatedAt
		p.changes.MarkDirty(FieldName, FieldDescription, FieldCategory, FieldBasePrice, FieldStatus)
	case *ProductUpdatedEvent:
		p.name = e.Name
		p.description = e.Description
		p.category = e.Category
		p.changes.MarkDirty(e.Changed...)
	case *PriceChangedEvent:
		p.basePrice = Cents(e.NewPriceCents)
		p.changes.MarkDirty(FieldBasePrice)
	case *ProductActivatedEvent:
		p.status = ProductStatusActive
		p.changes.MarkDirty(FieldStatus)
	case *ProductDeactivatedEvent:
		p.status = ProductStatusInactive
		p.changes.MarkDirty(FieldStatus)
	case *DiscountAppliedEvent:
		p.discount = &Discount{bps: e.DiscountBps, startDate: e.StartDate.UTC(), endDate: e.EndDate.UTC()}
		p.changes.MarkDirty(FieldDiscount)
	case *DiscountRemovedEvent:
		p.discount = nil
		p.changes.MarkDirty(FieldDiscount)
	default:
		return
	}
	p.updatedAt = e.OccurredAt()
}

func validateProductName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyProductName
	}
	if len(trimmed) > 255 {
		return ErrProductNameTooLong
	}
	return nil
}

func validateProductCategory(category string) error {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return ErrEmptyProductCategory
	}
	if len(trimmed) > 100 {
		return ErrProductCategoryTooLong
	}
	return nil
}

func validatePrice(price Money) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if price.IsZero() {
		return ErrZeroPrice
	}
	return nil
}
