package product

import (
	"fmt"
	"math/big"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
	"github.com/murkotick/product-projections/internal/app/product/usecases/apply_discount"
	"github.com/murkotick/product-projections/internal/app/product/usecases/create_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/update_product"
)

func mapCreateProductRequest(req *CreateProductRequest) (create_product.Request, error) {
	price, err := domain.ParseMoney(req.BasePrice)
	if err != nil {
		return create_product.Request{}, fmt.Errorf("base_price: %w", err)
	}
	return create_product.Request{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		BasePriceCents: price.Cents(),
	}, nil
}

func mapUpdateProductRequest(req *UpdateProductRequest) (update_product.Request, error) {
	out := update_product.Request{
		ProductID:   req.ProductID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.BasePrice != nil {
		price, err := domain.ParseMoney(*req.BasePrice)
		if err != nil {
			return update_product.Request{}, fmt.Errorf("base_price: %w", err)
		}
		cents := price.Cents()
		out.BasePriceCents = &cents
	}
	return out, nil
}

func mapApplyDiscountRequest(req *ApplyDiscountRequest) (apply_discount.Request, error) {
	d := req.Discount
	pct, err := parseDiscountPercentage(d.Percentage)
	if err != nil {
		return apply_discount.Request{}, err
	}
	return apply_discount.Request{
		ProductID:  req.ProductID,
		Percentage: pct,
		StartDate:  d.StartDate.UTC(),
		EndDate:    d.EndDate.UTC(),
	}, nil
}

// parseDiscountPercentage accepts either "20" (20%) or "0.2" (20%) and
// returns the 0-100 scale the interactor expects.
func parseDiscountPercentage(s string) (float64, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return 0, fmt.Errorf("invalid discount.percentage: %q", s)
	}
	if r.Cmp(big.NewRat(1, 1)) <= 0 {
		r.Mul(r, big.NewRat(100, 1))
	}
	f, _ := r.Float64()
	return f, nil
}

func mapSummary(in *dto.ProductSummaryDTO) *Product {
	return &Product{
		ID:             in.ProductID,
		Name:           in.Name,
		Category:       in.Category,
		Status:         in.Status,
		BasePrice:      domain.Cents(in.BasePriceCents).String(),
		EffectivePrice: domain.Cents(in.Price()).String(),
		Version:        in.LastSequence,
		UpdatedAt:      in.UpdatedAt,
	}
}

func mapSummaries(in []*dto.ProductSummaryDTO) []*Product {
	out := make([]*Product, 0, len(in))
	for _, it := range in {
		out = append(out, mapSummary(it))
	}
	return out
}

func mapActivity(in []*dto.ActivityDTO) []*Activity {
	out := make([]*Activity, 0, len(in))
	for _, it := range in {
		out = append(out, &Activity{
			Sequence:   it.Sequence,
			EventID:    it.EventID,
			EventType:  it.EventType,
			Summary:    it.Summary,
			OccurredAt: it.OccurredAt,
		})
	}
	return out
}
