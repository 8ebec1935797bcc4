// Package e2e runs the product service against the Spanner emulator. The
// suite is skipped when SPANNER_EMULATOR_HOST is not set.
package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	databasepb "cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	instancepb "cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/projectors"
	"github.com/murkotick/product-projections/internal/app/product/queries"
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
	committer "github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/eventlog"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/projection"
	"github.com/murkotick/product-projections/internal/pkg/unitofwork"
	grpcproduct "github.com/murkotick/product-projections/internal/transport/grpc/product"
)

var (
	spClient *spanner.Client
	clk      *clock.FakeClock

	codec      *events.Registry
	eventStore *eventlog.SpannerStore
	readModel  *queries.SpannerReadModel
	units      *unitofwork.Factory
	deps       shared.Deps

	client *grpcproduct.Client

	dbName string
)

func TestMain(m *testing.M) {
	if os.Getenv("SPANNER_EMULATOR_HOST") == "" {
		fmt.Println("SPANNER_EMULATOR_HOST not set; skipping e2e tests")
		os.Exit(0)
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	now := time.Now().UTC().Truncate(time.Second)
	clk = clock.NewFake(now)

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	projectID := env("SPANNER_PROJECT_ID", "test-project")
	instanceID := env("SPANNER_INSTANCE_ID", "emulator-instance")
	// A database per run keeps ids from colliding across runs.
	databaseID := "e2e_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]

	parent := "projects/" + projectID
	instName := parent + "/instances/" + instanceID
	dbName = instName + "/databases/" + databaseID

	instAdmin, err := instance.NewInstanceAdminClient(ctx)
	if err != nil {
		panic(fmt.Sprintf("instance admin client: %v", err))
	}
	defer instAdmin.Close()

	dbAdmin, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		panic(fmt.Sprintf("database admin client: %v", err))
	}
	defer dbAdmin.Close()

	ensureInstance(ctx, instAdmin, parent, instName, instanceID)

	ddlPath := filepath.Join("..", "..", "migrations", "001_initial_schema.sql")
	ddl, err := os.ReadFile(ddlPath)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", ddlPath, err))
	}
	op, err := dbAdmin.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          instName,
		CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", databaseID),
		ExtraStatements: splitDDL(string(ddl)),
	})
	if err != nil {
		panic(fmt.Sprintf("CreateDatabase: %v", err))
	}
	if _, err := op.Wait(ctx); err != nil {
		panic(fmt.Sprintf("CreateDatabase wait: %v", err))
	}

	spClient, err = spanner.NewClient(ctx, dbName)
	if err != nil {
		panic(fmt.Sprintf("spanner.NewClient: %v", err))
	}
	defer spClient.Close()

	wire()
	conn, stop := serve()
	defer stop()
	client = grpcproduct.NewClient(conn)

	code := m.Run()

	cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelCleanup()
	_ = dbAdmin.DropDatabase(cleanupCtx, &databasepb.DropDatabaseRequest{Database: dbName})

	return code
}

// wire builds the service the same way cmd/server does.
func wire() {
	cm := committer.NewAdapter(spClient)

	codec = events.NewRegistry()
	domain.RegisterEvents(codec)
	registry := projection.NewRegistry()
	projectors.Register(registry, clk)

	readModel = queries.NewSpannerReadModel(spClient)
	eventStore = eventlog.NewSpannerStore(spClient, cm)
	units = unitofwork.NewFactory(cm, registry, codec,
		unitofwork.WithTargetLoader(readModel.Summaries()),
	)
	deps = shared.Deps{
		Units:  units,
		Reader: repo.NewSpannerProductReader(spClient, eventStore),
		Repo:   repo.NewProductRepo(),
		Clock:  clk,
	}
}

func serve() (*grpc.ClientConn, func()) {
	h := grpcproduct.NewHandler(
		grpcproduct.Commands{
			Create:         create_product.NewInteractor(deps),
			Update:         update_product.NewInteractor(deps),
			Activate:       activate_product.NewInteractor(deps),
			Deactivate:     deactivate_product.NewInteractor(deps),
			ApplyDiscount:  apply_discount.NewInteractor(deps),
			RemoveDiscount: remove_discount.NewInteractor(deps),
		},
		grpcproduct.Queries{
			Get:      get_product.NewHandler(readModel),
			List:     list_products.NewHandler(readModel),
			Activity: list_activity.NewHandler(readModel),
		},
	)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcproduct.RequestIDInterceptor()))
	grpcproduct.RegisterProductServiceServer(srv, h)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		panic(fmt.Sprintf("dial bufconn: %v", err))
	}
	return conn, func() {
		_ = conn.Close()
		srv.Stop()
	}
}

func ensureInstance(ctx context.Context, admin *instance.InstanceAdminClient, parent, instName, instanceID string) {
	_, err := admin.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: instName})
	if err == nil {
		return
	}
	if status.Code(err) != codes.NotFound {
		panic(fmt.Sprintf("GetInstance: %v", err))
	}

	op, err := admin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     parent,
		InstanceId: instanceID,
		Instance: &instancepb.Instance{
			Config:      parent + "/instanceConfigs/emulator-config",
			DisplayName: "E2E Test Instance",
			NodeCount:   1,
		},
	})
	if err != nil {
		if status.Code(err) != codes.AlreadyExists {
			panic(fmt.Sprintf("CreateInstance: %v", err))
		}
		return
	}
	if _, err := op.Wait(ctx); err != nil {
		panic(fmt.Sprintf("CreateInstance wait: %v", err))
	}
}

func splitDDL(sql string) []string {
	sql = strings.ReplaceAll(sql, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(sql, ";") {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
