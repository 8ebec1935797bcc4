package product

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "product.v1.ProductService"

// ProductServiceServer is the server API of the product service.
type ProductServiceServer interface {
	CreateProduct(context.Context, *CreateProductRequest) (*CreateProductReply, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*UpdateProductReply, error)
	ActivateProduct(context.Context, *ActivateProductRequest) (*ActivateProductReply, error)
	DeactivateProduct(context.Context, *DeactivateProductRequest) (*DeactivateProductReply, error)
	ApplyDiscount(context.Context, *ApplyDiscountRequest) (*ApplyDiscountReply, error)
	RemoveDiscount(context.Context, *RemoveDiscountRequest) (*RemoveDiscountReply, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductReply, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsReply, error)
	ListActivity(context.Context, *ListActivityRequest) (*ListActivityReply, error)
}

// RegisterProductServiceServer attaches srv to s.
func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateProduct", ProductServiceServer.CreateProduct),
		unary("UpdateProduct", ProductServiceServer.UpdateProduct),
		unary("ActivateProduct", ProductServiceServer.ActivateProduct),
		unary("DeactivateProduct", ProductServiceServer.DeactivateProduct),
		unary("ApplyDiscount", ProductServiceServer.ApplyDiscount),
		unary("RemoveDiscount", ProductServiceServer.RemoveDiscount),
		unary("GetProduct", ProductServiceServer.GetProduct),
		unary("ListProducts", ProductServiceServer.ListProducts),
		unary("ListActivity", ProductServiceServer.ListActivity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "product/v1/product_service",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method handler that decodes Req, runs the interceptor
// chain and calls the server method.
func unary[Req, Reply any](name string, call func(ProductServiceServer, context.Context, *Req) (*Reply, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(ProductServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
