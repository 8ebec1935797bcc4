package e2e

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/repo"
	"github.com/murkotick/product-projections/internal/pkg/eventlog"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/sequencer"
	grpcproduct "github.com/murkotick/product-projections/internal/transport/grpc/product"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// uniqueCategory keeps list assertions independent of other tests.
func uniqueCategory() string {
	return "cat-" + uuid.NewString()[:8]
}

func create(t *testing.T, ctx context.Context, name, category, price string) string {
	t.Helper()
	out, err := client.CreateProduct(ctx, &grpcproduct.CreateProductRequest{
		Name: name, Category: category, BasePrice: price,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.ProductID)
	return out.ProductID
}

func stream(t *testing.T, ctx context.Context, productID string) []eventlog.Record {
	t.Helper()
	recs, err := eventStore.ReadStream(ctx, productID, 1)
	require.NoError(t, err)
	return recs
}

func types(recs []eventlog.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.EventType)
	}
	return out
}

func TestProductCreationFlow(t *testing.T) {
	ctx := testCtx(t)
	productID := create(t, ctx, "Test Product", "books", "19.99")

	got, err := client.GetProduct(ctx, &grpcproduct.GetProductRequest{ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, "Test Product", got.Product.Name)
	assert.Equal(t, "books", got.Product.Category)
	assert.Equal(t, "draft", got.Product.Status)
	assert.Equal(t, "19.99", got.Product.BasePrice)
	assert.Equal(t, "19.99", got.Product.EffectivePrice)
	assert.Equal(t, int64(2), got.Product.Version)

	recs := stream(t, ctx, productID)
	assert.Equal(t, []string{domain.EventProductCreated, domain.EventEffectivePriceChanged}, types(recs))
	for i, r := range recs {
		assert.Equal(t, int64(i+1), r.Sequence)
		assert.Equal(t, "pending", r.Status)
	}
}

func TestDiscountApplicationFlow(t *testing.T) {
	ctx := testCtx(t)
	category := uniqueCategory()
	productID := create(t, ctx, "Discounted Product", category, "100")

	_, err := client.ActivateProduct(ctx, &grpcproduct.ActivateProductRequest{ProductID: productID})
	require.NoError(t, err)

	start := clk.Now().Add(-time.Hour)
	end := clk.Now().Add(time.Hour)
	_, err = client.ApplyDiscount(ctx, &grpcproduct.ApplyDiscountRequest{
		ProductID: productID,
		Discount:  &grpcproduct.Discount{Percentage: "20", StartDate: &start, EndDate: &end},
	})
	require.NoError(t, err)

	got, err := client.GetProduct(ctx, &grpcproduct.GetProductRequest{ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, "80.00", got.Product.EffectivePrice)

	list, err := client.ListProducts(ctx, &grpcproduct.ListProductsRequest{Category: category})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, productID, list.Products[0].ID)
	assert.Equal(t, "80.00", list.Products[0].EffectivePrice)

	_, err = client.ApplyDiscount(ctx, &grpcproduct.ApplyDiscountRequest{
		ProductID: productID,
		Discount:  &grpcproduct.Discount{Percentage: "10", StartDate: &start, EndDate: &end},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.RemoveDiscount(ctx, &grpcproduct.RemoveDiscountRequest{ProductID: productID})
	require.NoError(t, err)
	got, err = client.GetProduct(ctx, &grpcproduct.GetProductRequest{ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.Product.EffectivePrice)

	assert.Equal(t, []string{
		domain.EventProductCreated,
		domain.EventEffectivePriceChanged,
		domain.EventProductActivated,
		domain.EventDiscountApplied,
		domain.EventEffectivePriceChanged,
		domain.EventDiscountRemoved,
		domain.EventEffectivePriceChanged,
	}, types(stream(t, ctx, productID)))
	assert.Equal(t, int64(7), got.Product.Version)
}

func TestBusinessRuleValidation_CannotApplyDiscountToInactiveProduct(t *testing.T) {
	ctx := testCtx(t)
	productID := create(t, ctx, "Inactive Product", "books", "50")

	start := clk.Now().Add(-time.Hour)
	end := clk.Now().Add(time.Hour)
	_, err := client.ApplyDiscount(ctx, &grpcproduct.ApplyDiscountRequest{
		ProductID: productID,
		Discount:  &grpcproduct.Discount{Percentage: "10", StartDate: &start, EndDate: &end},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	row, err := spClient.Single().ReadRow(ctx, "products", spanner.Key{productID}, []string{"discount_bps"})
	require.NoError(t, err)
	var bps spanner.NullInt64
	require.NoError(t, row.Columns(&bps))
	assert.False(t, bps.Valid)
	assert.Len(t, stream(t, ctx, productID), 2)
}

func TestProductUpdateFlow(t *testing.T) {
	ctx := testCtx(t)
	productID := create(t, ctx, "Old Name", "books", "10")

	name := "New Name"
	price := "12.50"
	_, err := client.UpdateProduct(ctx, &grpcproduct.UpdateProductRequest{
		ProductID: productID, Name: &name, BasePrice: &price,
	})
	require.NoError(t, err)

	got, err := client.GetProduct(ctx, &grpcproduct.GetProductRequest{ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Product.Name)
	assert.Equal(t, "12.50", got.Product.EffectivePrice)
	assert.Equal(t, int64(5), got.Product.Version)

	assert.Equal(t, []string{
		domain.EventProductCreated,
		domain.EventEffectivePriceChanged,
		domain.EventProductUpdated,
		domain.EventPriceChanged,
		domain.EventEffectivePriceChanged,
	}, types(stream(t, ctx, productID)))

	p, err := deps.Reader.Load(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Version())
	assert.Equal(t, domain.Cents(1250), p.BasePrice())
}

func TestConcurrentModificationIsRejected(t *testing.T) {
	ctx := testCtx(t)
	productID := create(t, ctx, "Contested", "books", "10")

	var first, second *repo.ProductStore
	u1 := units.Begin(repo.NewProductStore(deps.Reader, deps.Repo, func(s *repo.ProductStore) { first = s }))
	u2 := units.Begin(repo.NewProductStore(deps.Reader, deps.Repo, func(s *repo.ProductStore) { second = s }))

	p1, err := first.Get(ctx, productID)
	require.NoError(t, err)
	p2, err := second.Get(ctx, productID)
	require.NoError(t, err)

	require.NoError(t, p1.Activate(clk.Now()))
	require.NoError(t, p2.UpdateDetails("Other", "", "", clk.Now()))

	require.NoError(t, u1.Commit(ctx))
	err = repo.TranslateCommitError(u2.Commit(ctx))
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, err := client.GetProduct(ctx, &grpcproduct.GetProductRequest{ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, "Contested", got.Product.Name)
	assert.Equal(t, "active", got.Product.Status)
}

// bus hands published events straight to a dispatcher.
type bus struct {
	dispatcher *sequencer.Dispatcher
}

func (b bus) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, evt := range evts {
		if _, err := b.dispatcher.Dispatch(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func TestRelayFeedsAsynchronousProjections(t *testing.T) {
	ctx := testCtx(t)
	productID := create(t, ctx, "Relayed", "books", "30")
	_, err := client.ActivateProduct(ctx, &grpcproduct.ActivateProductRequest{ProductID: productID})
	require.NoError(t, err)

	dispatcher := sequencer.NewDispatcher(sequencer.NewMemoryStore(), units.ProjectAsync)
	relay := eventlog.NewRelay(eventStore, bus{dispatcher: dispatcher}, codec, clk, nil, eventlog.RelayConfig{BatchSize: 100})
	for {
		n, err := relay.PublishBatch(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	assert.Zero(t, dispatcher.Pending(productID))

	for _, r := range stream(t, ctx, productID) {
		assert.Equal(t, "published", r.Status)
	}

	out, err := client.ListActivity(ctx, &grpcproduct.ListActivityRequest{ProductID: productID})
	require.NoError(t, err)
	require.Len(t, out.Entries, 3)
	assert.Equal(t, "Relayed created in books at 30.00", out.Entries[0].Summary)
	assert.Equal(t, "Relayed now sells at 30.00", out.Entries[1].Summary)
	assert.Equal(t, "Relayed activated", out.Entries[2].Summary)

	// Publishing the same events again must not duplicate activity.
	recs := stream(t, ctx, productID)
	for _, r := range recs {
		evt, err := r.Event(codec)
		require.NoError(t, err)
		outcome, err := dispatcher.Dispatch(ctx, evt)
		require.NoError(t, err)
		assert.Equal(t, sequencer.Skipped, outcome)
	}
}
