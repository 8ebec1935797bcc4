package product

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
	"github.com/murkotick/product-projections/internal/app/product/projectors"
	"github.com/murkotick/product-projections/internal/app/product/queries/get_product"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_activity"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_products"
	"github.com/murkotick/product-projections/internal/app/product/repo"
	"github.com/murkotick/product-projections/internal/app/product/usecases/activate_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/apply_discount"
	"github.com/murkotick/product-projections/internal/app/product/usecases/create_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/deactivate_product"
	"github.com/murkotick/product-projections/internal/app/product/usecases/remove_discount"
	"github.com/murkotick/product-projections/internal/app/product/usecases/shared"
	"github.com/murkotick/product-projections/internal/app/product/usecases/update_product"
	"github.com/murkotick/product-projections/internal/pkg/clock"
	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/logx"
	"github.com/murkotick/product-projections/internal/pkg/projection"
	"github.com/murkotick/product-projections/internal/pkg/unitofwork"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memory backs both sides of the service: products for the write side and
// canned summaries for the read side.
type memory struct {
	products  map[string]*domain.Product
	summaries map[string]*dto.ProductSummaryDTO
	activity  []*dto.ActivityDTO
	commits   int

	lastCategory string
	lastLimit    int
	lastOffset   int
}

func newMemory() *memory {
	return &memory{
		products:  map[string]*domain.Product{},
		summaries: map[string]*dto.ProductSummaryDTO{},
	}
}

func (m *memory) Load(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *memory) GetProduct(_ context.Context, id string) (*dto.ProductSummaryDTO, error) {
	s, ok := m.summaries[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return s, nil
}

func (m *memory) ListProducts(_ context.Context, category string, limit, offset int) ([]*dto.ProductSummaryDTO, error) {
	m.lastCategory, m.lastLimit, m.lastOffset = category, limit, offset
	out := make([]*dto.ProductSummaryDTO, 0, len(m.summaries))
	for _, s := range m.summaries {
		if category == "" || s.Category == category {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) ListActivity(_ context.Context, productID string, limit int) ([]*dto.ActivityDTO, error) {
	m.lastLimit = limit
	var out []*dto.ActivityDTO
	for _, a := range m.activity {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memory) handler() *Handler {
	codec := events.NewRegistry()
	domain.RegisterEvents(codec)
	reg := projection.NewRegistry()
	projectors.Register(reg, clock.NewFake(now))

	apply := committer.Func(func(context.Context, *committer.Plan) error {
		m.commits++
		return nil
	})
	deps := shared.Deps{
		Units:  unitofwork.NewFactory(apply, reg, codec),
		Reader: m,
		Repo:   repo.NewProductRepo(),
		Clock:  clock.NewFake(now),
	}
	return NewHandler(
		Commands{
			Create:         create_product.NewInteractor(deps),
			Update:         update_product.NewInteractor(deps),
			Activate:       activate_product.NewInteractor(deps),
			Deactivate:     deactivate_product.NewInteractor(deps),
			ApplyDiscount:  apply_discount.NewInteractor(deps),
			RemoveDiscount: remove_discount.NewInteractor(deps),
		},
		Queries{
			Get:      get_product.NewHandler(m),
			List:     list_products.NewHandler(m),
			Activity: list_activity.NewHandler(m),
		},
	)
}

func (m *memory) seed(t *testing.T, id string) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(id, "Lamp", "", "home", domain.Cents(2000), now)
	require.NoError(t, err)
	p.MarkCommitted(2)
	m.products[id] = p
	return p
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), err.Error())
}

func TestCreateProduct_Validation(t *testing.T) {
	h := newMemory().handler()
	ctx := context.Background()

	_, err := h.CreateProduct(ctx, &CreateProductRequest{Category: "home", BasePrice: "1.00"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = h.CreateProduct(ctx, &CreateProductRequest{Name: "Lamp", Category: "home", BasePrice: "1.999"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = h.CreateProduct(ctx, &CreateProductRequest{Name: "Lamp", Category: "home", BasePrice: "0"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestCreateProduct_Commits(t *testing.T) {
	m := newMemory()
	out, err := m.handler().CreateProduct(context.Background(), &CreateProductRequest{
		Name: "Lamp", Category: "home", BasePrice: "19.99",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ProductID)
	assert.Equal(t, 1, m.commits)
}

func TestUpdateProduct_PriceOnly(t *testing.T) {
	m := newMemory()
	p := m.seed(t, "prod-1")
	price := "24.50"

	_, err := m.handler().UpdateProduct(context.Background(), &UpdateProductRequest{ProductID: "prod-1", BasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(2450), p.BasePrice())

	_, err = m.handler().UpdateProduct(context.Background(), &UpdateProductRequest{ProductID: "prod-1"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestStateTransitions_MapDomainErrors(t *testing.T) {
	m := newMemory()
	m.seed(t, "prod-1")
	h := m.handler()
	ctx := context.Background()

	_, err := h.ActivateProduct(ctx, &ActivateProductRequest{ProductID: "missing"})
	requireCode(t, err, codes.NotFound)

	start, end := now.Add(-time.Hour), now.Add(time.Hour)
	_, err = h.ApplyDiscount(ctx, &ApplyDiscountRequest{
		ProductID: "prod-1",
		Discount:  &Discount{Percentage: "20", StartDate: &start, EndDate: &end},
	})
	requireCode(t, err, codes.FailedPrecondition)

	_, err = h.ActivateProduct(ctx, &ActivateProductRequest{ProductID: "prod-1"})
	require.NoError(t, err)
	_, err = h.ApplyDiscount(ctx, &ApplyDiscountRequest{
		ProductID: "prod-1",
		Discount:  &Discount{Percentage: "0.2", StartDate: &start, EndDate: &end},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(1600), m.products["prod-1"].CalculateEffectivePrice(now))

	_, err = h.RemoveDiscount(ctx, &RemoveDiscountRequest{ProductID: "prod-1"})
	require.NoError(t, err)
	assert.Nil(t, m.products["prod-1"].Discount())

	_, err = h.DeactivateProduct(ctx, &DeactivateProductRequest{ProductID: "prod-1"})
	require.NoError(t, err)
	_, err = h.DeactivateProduct(ctx, &DeactivateProductRequest{ProductID: "prod-1"})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestApplyDiscount_Validation(t *testing.T) {
	h := newMemory().handler()
	start := now
	_, err := h.ApplyDiscount(context.Background(), &ApplyDiscountRequest{
		ProductID: "prod-1",
		Discount:  &Discount{Percentage: "20", StartDate: &start},
	})
	requireCode(t, err, codes.InvalidArgument)

	end := now.Add(time.Hour)
	_, err = h.ApplyDiscount(context.Background(), &ApplyDiscountRequest{
		ProductID: "prod-1",
		Discount:  &Discount{Percentage: "abc", StartDate: &start, EndDate: &end},
	})
	requireCode(t, err, codes.InvalidArgument)
}

func TestListProducts_Paging(t *testing.T) {
	m := newMemory()
	for _, id := range []string{"a", "b", "c"} {
		m.summaries[id] = &dto.ProductSummaryDTO{ProductID: id, Category: "home", BasePriceCents: 100}
	}
	h := m.handler()

	out, err := h.ListProducts(context.Background(), &ListProductsRequest{Category: "home", PageSize: 2, PageToken: "4"})
	require.NoError(t, err)
	assert.Len(t, out.Products, 2)
	assert.Equal(t, "6", out.NextPageToken)
	assert.Equal(t, "home", m.lastCategory)
	assert.Equal(t, 4, m.lastOffset)

	out, err = h.ListProducts(context.Background(), &ListProductsRequest{PageSize: 1000})
	require.NoError(t, err)
	assert.Empty(t, out.NextPageToken)
	assert.Equal(t, maxPageSize, m.lastLimit)

	_, err = h.ListProducts(context.Background(), &ListProductsRequest{PageToken: "-1"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.Equal(t, codes.Aborted, status.Code(mapError(domain.ErrConcurrentModification)))
	assert.Equal(t, codes.InvalidArgument, status.Code(mapError(domain.ErrZeroPrice)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(mapError(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(mapError(assert.AnError)))
}

// dial serves h on an in-memory listener and returns a client for it.
func dial(t *testing.T, h *Handler) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterProductServiceServer(srv, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestClient_RoundTrip(t *testing.T) {
	m := newMemory()
	effective := int64(1500)
	m.summaries["prod-1"] = &dto.ProductSummaryDTO{
		ProductID: "prod-1", Name: "Lamp", Category: "home", Status: "active",
		BasePriceCents: 2000, EffectivePriceCents: &effective, LastSequence: 4, UpdatedAt: now,
	}
	m.activity = []*dto.ActivityDTO{{ProductID: "prod-1", Sequence: 1, EventType: "product.created", Summary: "Lamp created", OccurredAt: now}}
	c := dial(t, m.handler())
	ctx := context.Background()

	created, err := c.CreateProduct(ctx, &CreateProductRequest{Name: "Chair", Category: "home", BasePrice: "50"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ProductID)

	got, err := c.GetProduct(ctx, &GetProductRequest{ProductID: "prod-1"})
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.Product.BasePrice)
	assert.Equal(t, "15.00", got.Product.EffectivePrice)
	assert.Equal(t, int64(4), got.Product.Version)
	assert.True(t, now.Equal(got.Product.UpdatedAt))

	_, err = c.GetProduct(ctx, &GetProductRequest{ProductID: "missing"})
	requireCode(t, err, codes.NotFound)

	entries, err := c.ListActivity(ctx, &ListActivityRequest{ProductID: "prod-1"})
	require.NoError(t, err)
	require.Len(t, entries.Entries, 1)
	assert.Equal(t, "Lamp created", entries.Entries[0].Summary)
}

func TestInterceptors_PropagateRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logx.NewWithWriter(&buf, "test", "debug")

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(RequestIDInterceptor(), AccessLogInterceptor(logger)))
	m := newMemory()
	m.summaries["prod-1"] = &dto.ProductSummaryDTO{ProductID: "prod-1", BasePriceCents: 100}
	RegisterProductServiceServer(srv, m.handler())
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDMetadataKey, "req-42")
	var header metadata.MD
	_, err = NewClient(conn).GetProduct(ctx, &GetProductRequest{ProductID: "prod-1"}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDMetadataKey))

	srv.GracefulStop()
	assert.Contains(t, buf.String(), "req-42")
	assert.Contains(t, buf.String(), fullMethod("GetProduct"))
}
