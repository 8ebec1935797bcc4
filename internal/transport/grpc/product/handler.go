package product

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/murkotick/product-projections/internal/app/product/queries/get_product"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_activity"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_products"
	"github.com/murkotick/product-projections/internal/app/product/usecases/activate_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/apply_discount"
	"github.com/murkotick/product-projections/internal/app/product/usecases/create_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/deactivate_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/remove_discount"
	"github.com/murkotick/product-projections/internal/app/product/usecases/update_product"
)

// Commands groups write interactors.
// Keep transport layer depending on application layer only.
type Commands struct {
	Create         *create_product.Interactor
	Update         *update_product.Interactor
	Activate       *activate_product.Interactor
	Deactivate     *deactivate_product.Interactor
	ApplyDiscount  *apply_discount.Interactor
	RemoveDiscount *remove_discount.Interactor
}

// Queries groups read handlers.
type Queries struct {
	Get      *get_product.Handler
	List     *list_products.Handler
	Activity *list_activity.Handler
}

// Handler is a thin gRPC transport adapter.
// It validates input, maps messages to application requests and delegates to CQRS handlers.
type Handler struct {
	commands Commands
	queries  Queries
}

var _ ProductServiceServer = (*Handler)(nil)

func NewHandler(cmd Commands, qry Queries) *Handler {
	return &Handler{commands: cmd, queries: qry}
}

func (h *Handler) CreateProduct(ctx context.Context, req *CreateProductRequest) (*CreateProductReply, error) {
	if err := validateCreateProduct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appReq, err := mapCreateProductRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id, err := h.commands.Create.Execute(ctx, appReq)
	if err != nil {
		return nil, mapError(err)
	}

	return &CreateProductReply{ProductID: id}, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*UpdateProductReply, error) {
	if err := validateUpdateProduct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appReq, err := mapUpdateProductRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.commands.Update.Execute(ctx, appReq); err != nil {
		return nil, mapError(err)
	}
	return &UpdateProductReply{}, nil
}

func (h *Handler) ActivateProduct(ctx context.Context, req *ActivateProductRequest) (*ActivateProductReply, error) {
	if req == nil || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	if err := h.commands.Activate.Execute(ctx, activate_product.Request{ProductID: req.ProductID}); err != nil {
		return nil, mapError(err)
	}
	return &ActivateProductReply{}, nil
}

func (h *Handler) DeactivateProduct(ctx context.Context, req *DeactivateProductRequest) (*DeactivateProductReply, error) {
	if req == nil || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	if err := h.commands.Deactivate.Execute(ctx, deactivate_product.Request{ProductID: req.ProductID}); err != nil {
		return nil, mapError(err)
	}
	return &DeactivateProductReply{}, nil
}

func (h *Handler) ApplyDiscount(ctx context.Context, req *ApplyDiscountRequest) (*ApplyDiscountReply, error) {
	if err := validateApplyDiscount(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appReq, err := mapApplyDiscountRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := h.commands.ApplyDiscount.Execute(ctx, appReq); err != nil {
		return nil, mapError(err)
	}
	return &ApplyDiscountReply{}, nil
}

func (h *Handler) RemoveDiscount(ctx context.Context, req *RemoveDiscountRequest) (*RemoveDiscountReply, error) {
	if req == nil || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	if err := h.commands.RemoveDiscount.Execute(ctx, remove_discount.Request{ProductID: req.ProductID}); err != nil {
		return nil, mapError(err)
	}
	return &RemoveDiscountReply{}, nil
}

func (h *Handler) GetProduct(ctx context.Context, req *GetProductRequest) (*GetProductReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := validateProductID(req.ProductID); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	out, err := h.queries.Get.Execute(ctx, req.ProductID)
	if err != nil {
		return nil, mapError(err)
	}
	return &GetProductReply{Product: mapSummary(out)}, nil
}

func (h *Handler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	limit := pageSize(req.PageSize)
	offset, err := decodePageToken(req.PageToken)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := h.queries.List.Execute(ctx, req.Category, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}

	next := ""
	if len(items) == limit {
		next = encodePageToken(offset + len(items))
	}
	return &ListProductsReply{Products: mapSummaries(items), NextPageToken: next}, nil
}

func (h *Handler) ListActivity(ctx context.Context, req *ListActivityRequest) (*ListActivityReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := validateProductID(req.ProductID); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := h.queries.Activity.Execute(ctx, req.ProductID, pageSize(req.PageSize))
	if err != nil {
		return nil, mapError(err)
	}
	return &ListActivityReply{Entries: mapActivity(items)}, nil
}
