package domain

import "errors"

// Domain errors for the Product aggregate
var (
	ErrProductNotFound        = errors.New("product not found")
	ErrProductNotActive       = errors.New("product is not active")
	ErrProductAlreadyActive   = errors.New("product is already active")
	ErrProductAlreadyInactive = errors.New("product is already inactive")

	// ErrConcurrentModification means another unit of work appended to the
	// same stream first.
	ErrConcurrentModification = errors.New("product was modified concurrently")
)

// Domain errors for Discount
var (
	ErrInvalidDiscountPercentage = errors.New("discount percentage must be between 0 and 100")
	ErrInvalidDiscountPeriod     = errors.New("discount end date must be after start date")
	ErrDiscountNotValid          = errors.New("discount is not valid at this time")
	ErrDiscountAlreadyExists     = errors.New("product already has an active discount")
)

// Domain errors for Money
var (
	ErrNegativePrice = errors.New("price cannot be negative")
	ErrZeroPrice     = errors.New("price cannot be zero")
)

// Domain errors for Product validation
var (
	ErrEmptyProductName       = errors.New("product name cannot be empty")
	ErrEmptyProductCategory   = errors.New("product category cannot be empty")
	ErrProductNameTooLong     = errors.New("product name exceeds maximum length of 255 characters")
	ErrProductCategoryTooLong = errors.New("product category exceeds maximum length of 100 characters")
)
