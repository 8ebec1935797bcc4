package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

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
	"github.com/murkotick/product-projections/internal/config"
	"github.com/murkotick/product-projections/internal/pkg/clock"
	committer "github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/eventlog"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/kafkabus"
	"github.com/murkotick/product-projections/internal/pkg/logx"
	"github.com/murkotick/product-projections/internal/pkg/projection"
	"github.com/murkotick/product-projections/internal/pkg/sequencer"
	"github.com/murkotick/product-projections/internal/pkg/telemetry"
	"github.com/murkotick/product-projections/internal/pkg/unitofwork"
	grpcproduct "github.com/murkotick/product-projections/internal/transport/grpc/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logx.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// The client honours SPANNER_EMULATOR_HOST on its own.
	client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
	if err != nil {
		return fmt.Errorf("spanner.NewClient: %w", err)
	}
	defer client.Close()

	clk := clock.RealClock{}
	cm := committer.NewAdapter(client)

	codec := events.NewRegistry()
	domain.RegisterEvents(codec)
	registry := projection.NewRegistry()
	projectors.Register(registry, clk)

	readModel := queries.NewSpannerReadModel(client)
	eventStore := eventlog.NewSpannerStore(client, cm)

	units := unitofwork.NewFactory(cm, registry, codec,
		unitofwork.WithTargetLoader(readModel.Summaries()),
		unitofwork.WithLogger(logger),
		unitofwork.WithMaxDrainPasses(cfg.MaxDrainPasses),
	)
	deps := shared.Deps{
		Units:  units,
		Reader: repo.NewSpannerProductReader(client, eventStore),
		Repo:   repo.NewProductRepo(),
		Clock:  clk,
		Logger: logger,
	}

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

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcproduct.RequestIDInterceptor(),
			grpcproduct.AccessLogInterceptor(logger),
		),
	)
	grpcproduct.RegisterProductServiceServer(srv, h)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus(grpcproduct.ServiceName, healthpb.HealthCheckResponse_SERVING)

	var workers []func(context.Context) error
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set; event relay and asynchronous projections are disabled")
	} else {
		writer, err := kafkabus.NewWriter(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		publisher := kafkabus.NewPublisher(writer, cfg.KafkaTopic, codec)
		defer publisher.Close()

		relay := eventlog.NewRelay(eventStore, publisher, codec, clk, logger, eventlog.RelayConfig{
			PollEvery: cfg.RelayInterval,
			BatchSize: cfg.RelayBatchSize,
		})

		seqStore, closeStore, err := sequenceStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		reader, err := kafkabus.NewReader(kafkabus.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			return err
		}
		consumer := kafkabus.NewConsumer(reader, codec, logger)
		defer consumer.Close()

		dispatcher := sequencer.NewDispatcher(seqStore, units.ProjectAsync,
			sequencer.WithWorkers(cfg.DispatchWorkers),
			sequencer.WithRetryBackoff(cfg.DispatchRetryMin, cfg.DispatchRetryMax),
			sequencer.WithLogger(logger),
		)
		workers = append(workers,
			func(ctx context.Context) error {
				relay.Run(ctx)
				return nil
			},
			func(ctx context.Context) error {
				return dispatcher.Run(ctx, consumer)
			},
		)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSrv.Shutdown()
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			srv.Stop()
		}
		return nil
	})
	for _, w := range workers {
		g.Go(func() error { return w(gctx) })
	}
	return g.Wait()
}

// sequenceStore opens the backend that records the last dispatched position
// of every stream.
func sequenceStore(ctx context.Context, cfg config.Config) (sequencer.Store, func(), error) {
	switch cfg.SequenceStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return sequencer.NewRedisStore(rdb, cfg.RedisKeyPrefix), func() { _ = rdb.Close() }, nil
	case config.StorePostgres:
		pool, err := sequencer.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		store := sequencer.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return sequencer.NewMemoryStore(), func() {}, nil
	}
}
