package product

import (
	"fmt"
)

func validateCreateProduct(req *CreateProductRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Category == "" {
		return fmt.Errorf("category is required")
	}
	if req.BasePrice == "" {
		return fmt.Errorf("base_price is required")
	}
	return nil
}

func validateUpdateProduct(req *UpdateProductRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	if req.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if req.Name == nil && req.Description == nil && req.Category == nil && req.BasePrice == nil {
		return fmt.Errorf("at least one field must be provided")
	}
	return nil
}

func validateApplyDiscount(req *ApplyDiscountRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	if req.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if req.Discount == nil {
		return fmt.Errorf("discount is required")
	}
	if req.Discount.Percentage == "" {
		return fmt.Errorf("discount.percentage is required")
	}
	if req.Discount.StartDate == nil {
		return fmt.Errorf("discount.start_date is required")
	}
	if req.Discount.EndDate == nil {
		return fmt.Errorf("discount.end_date is required")
	}
	return nil
}

func validateProductID(id string) error {
	if id == "" {
		return fmt.Errorf("product_id is required")
	}
	return nil
}
