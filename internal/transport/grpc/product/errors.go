package product

import (
	"context"
	"errors"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/murkotick/product-projections/internal/app/product/domain"
)

// errorCodes lists the sentinel errors with a dedicated status code. The
// first matching entry wins.
var errorCodes = []struct {
	code codes.Code
	errs []error
}{
	{codes.Canceled, []error{context.Canceled}},
	{codes.DeadlineExceeded, []error{context.DeadlineExceeded}},
	{codes.NotFound, []error{domain.ErrProductNotFound, spanner.ErrRowNotFound}},
	// lost a race on the event stream; the client may retry
	{codes.Aborted, []error{domain.ErrConcurrentModification}},
	{codes.InvalidArgument, []error{
		domain.ErrEmptyProductName,
		domain.ErrEmptyProductCategory,
		domain.ErrProductNameTooLong,
		domain.ErrProductCategoryTooLong,
		domain.ErrInvalidDiscountPercentage,
		domain.ErrInvalidDiscountPeriod,
		domain.ErrNegativePrice,
		domain.ErrZeroPrice,
	}},
	{codes.FailedPrecondition, []error{
		domain.ErrProductNotActive,
		domain.ErrProductAlreadyActive,
		domain.ErrProductAlreadyInactive,
		domain.ErrDiscountNotValid,
		domain.ErrDiscountAlreadyExists,
	}},
}

// mapError translates domain errors into gRPC status errors. Anything
// unrecognised becomes codes.Internal.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, entry := range errorCodes {
		for _, target := range entry.errs {
			if errors.Is(err, target) {
				return status.Error(entry.code, err.Error())
			}
		}
	}
	return status.Error(codes.Internal, err.Error())
}
