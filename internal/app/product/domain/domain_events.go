package domain

import (
	"time"

	"github.com/murkotick/product-projections/internal/pkg/events"
)

// AggregateType names the product stream type.
const AggregateType = "product"

// DomainEvent is a fact raised by the Product aggregate.
type DomainEvent = events.DomainEvent

// Event type names.
const (
	EventProductCreated        = "product.created"
	EventProductUpdated        = "product.updated"
	EventPriceChanged          = "product.price_changed"
	EventProductActivated      = "product.activated"
	EventProductDeactivated    = "product.deactivated"
	EventDiscountApplied       = "product.discount_applied"
	EventDiscountRemoved       = "product.discount_removed"
	EventEffectivePriceChanged = "product.effective_price_changed"
)

// ProductCreatedEvent is raised when a new product is created.
type ProductCreatedEvent struct {
	ProductID      string    `json:"product_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category"`
	BasePriceCents int64     `json:"base_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

func (e *ProductCreatedEvent) EventType() string     { return EventProductCreated }
func (e *ProductCreatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ProductUpdatedEvent carries the details after an update.
type ProductUpdatedEvent struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Changed     []string  `json:"changed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *ProductUpdatedEvent) EventType() string     { return EventProductUpdated }
func (e *ProductUpdatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// PriceChangedEvent is raised when the base price changes.
type PriceChangedEvent struct {
	ProductID     string    `json:"product_id"`
	OldPriceCents int64     `json:"old_price_cents"`
	NewPriceCents int64     `json:"new_price_cents"`
	ChangedAt     time.Time `json:"changed_at"`
}

func (e *PriceChangedEvent) EventType() string     { return EventPriceChanged }
func (e *PriceChangedEvent) AggregateID() string   { return e.ProductID }
func (e *PriceChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

type ProductActivatedEvent struct {
	ProductID   string    `json:"product_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

func (e *ProductActivatedEvent) EventType() string     { return EventProductActivated }
func (e *ProductActivatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductActivatedEvent) OccurredAt() time.Time { return e.ActivatedAt }

type ProductDeactivatedEvent struct {
	ProductID     string    `json:"product_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

func (e *ProductDeactivatedEvent) EventType() string     { return EventProductDeactivated }
func (e *ProductDeactivatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductDeactivatedEvent) OccurredAt() time.Time { return e.DeactivatedAt }

type DiscountAppliedEvent struct {
	ProductID   string    `json:"product_id"`
	DiscountBps int64     `json:"discount_bps"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	AppliedAt   time.Time `json:"applied_at"`
}

func (e *DiscountAppliedEvent) EventType() string     { return EventDiscountApplied }
func (e *DiscountAppliedEvent) AggregateID() string   { return e.ProductID }
func (e *DiscountAppliedEvent) OccurredAt() time.Time { return e.AppliedAt }

type DiscountRemovedEvent struct {
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

func (e *DiscountRemovedEvent) EventType() string     { return EventDiscountRemoved }
func (e *DiscountRemovedEvent) AggregateID() string   { return e.ProductID }
func (e *DiscountRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// EffectivePriceChangedEvent is raised by the pricing projection, not by the
// aggregate, whenever the base price or the discount of a product changes.
type EffectivePriceChangedEvent struct {
	ProductID           string    `json:"product_id"`
	BasePriceCents      int64     `json:"base_price_cents"`
	DiscountBps         int64     `json:"discount_bps"`
	EffectivePriceCents int64     `json:"effective_price_cents"`
	ChangedAt           time.Time `json:"changed_at"`
}

func (e *EffectivePriceChangedEvent) EventType() string     { return EventEffectivePriceChanged }
func (e *EffectivePriceChangedEvent) AggregateID() string   { return e.ProductID }
func (e *EffectivePriceChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// RegisterEvents binds every product event type to its payload.
func RegisterEvents(r *events.Registry) {
	r.Register(EventProductCreated, func() events.DomainEvent { return &ProductCreatedEvent{} })
	r.Register(EventProductUpdated, func() events.DomainEvent { return &ProductUpdatedEvent{} })
	r.Register(EventPriceChanged, func() events.DomainEvent { return &PriceChangedEvent{} })
	r.Register(EventProductActivated, func() events.DomainEvent { return &ProductActivatedEvent{} })
	r.Register(EventProductDeactivated, func() events.DomainEvent { return &ProductDeactivatedEvent{} })
	r.Register(EventDiscountApplied, func() events.DomainEvent { return &DiscountAppliedEvent{} })
	r.Register(EventDiscountRemoved, func() events.DomainEvent { return &DiscountRemovedEvent{} })
	r.Register(EventEffectivePriceChanged, func() events.DomainEvent { return &EffectivePriceChangedEvent{} })
}
