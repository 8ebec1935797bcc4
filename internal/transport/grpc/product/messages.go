package product

import "time"

// Prices travel as decimal strings ("19.99") and discounts as percentages
// ("20" or "0.2").

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	BasePrice   string `json:"base_price"`
}

type CreateProductReply struct {
	ProductID string `json:"product_id"`
}

type UpdateProductRequest struct {
	ProductID   string  `json:"product_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	BasePrice   *string `json:"base_price,omitempty"`
}

type UpdateProductReply struct{}

type ActivateProductRequest struct {
	ProductID string `json:"product_id"`
}

type ActivateProductReply struct{}

type DeactivateProductRequest struct {
	ProductID string `json:"product_id"`
}

type DeactivateProductReply struct{}

type Discount struct {
	Percentage string     `json:"percentage"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

type ApplyDiscountRequest struct {
	ProductID string    `json:"product_id"`
	Discount  *Discount `json:"discount"`
}

type ApplyDiscountReply struct{}

type RemoveDiscountRequest struct {
	ProductID string `json:"product_id"`
}

type RemoveDiscountReply struct{}

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	BasePrice      string    `json:"base_price"`
	EffectivePrice string    `json:"effective_price"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type GetProductRequest struct {
	ProductID string `json:"product_id"`
}

type GetProductReply struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct {
	Category  string `json:"category,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListProductsReply struct {
	Products      []*Product `json:"products"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

type ListActivityRequest struct {
	ProductID string `json:"product_id"`
	PageSize  int32  `json:"page_size,omitempty"`
}

type Activity struct {
	Sequence   int64     `json:"sequence"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ListActivityReply struct {
	Entries []*Activity `json:"entries"`
}
