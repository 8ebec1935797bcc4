package product

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the product service over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*CreateProductReply, error) {
	out := new(CreateProductReply)
	if err := c.invoke(ctx, "CreateProduct", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, in *UpdateProductRequest, opts ...grpc.CallOption) (*UpdateProductReply, error) {
	out := new(UpdateProductReply)
	if err := c.invoke(ctx, "UpdateProduct", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ActivateProduct(ctx context.Context, in *ActivateProductRequest, opts ...grpc.CallOption) (*ActivateProductReply, error) {
	out := new(ActivateProductReply)
	if err := c.invoke(ctx, "ActivateProduct", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeactivateProduct(ctx context.Context, in *DeactivateProductRequest, opts ...grpc.CallOption) (*DeactivateProductReply, error) {
	out := new(DeactivateProductReply)
	if err := c.invoke(ctx, "DeactivateProduct", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplyDiscount(ctx context.Context, in *ApplyDiscountRequest, opts ...grpc.CallOption) (*ApplyDiscountReply, error) {
	out := new(ApplyDiscountReply)
	if err := c.invoke(ctx, "ApplyDiscount", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveDiscount(ctx context.Context, in *RemoveDiscountRequest, opts ...grpc.CallOption) (*RemoveDiscountReply, error) {
	out := new(RemoveDiscountReply)
	if err := c.invoke(ctx, "RemoveDiscount", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductReply, error) {
	out := new(GetProductReply)
	if err := c.invoke(ctx, "GetProduct", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsReply, error) {
	out := new(ListProductsReply)
	if err := c.invoke(ctx, "ListProducts", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListActivity(ctx context.Context, in *ListActivityRequest, opts ...grpc.CallOption) (*ListActivityReply, error) {
	out := new(ListActivityReply)
	if err := c.invoke(ctx, "ListActivity", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
