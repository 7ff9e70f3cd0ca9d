package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	catH "github.com/fekuna/omnipos-inventory-service/internal/category/handler"
	catUCPkg "github.com/fekuna/omnipos-inventory-service/internal/category/usecase"
	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/listener"
	invUCPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/response"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/retry"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/validation"
	prodH "github.com/fekuna/omnipos-inventory-service/internal/product/handler"
	prodUCPkg "github.com/fekuna/omnipos-inventory-service/internal/product/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/server"
	"github.com/fekuna/omnipos-inventory-service/internal/sku"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	cmd := &cli.Command{
		Name:  "inventory",
		Usage: "Inventory service: products, categories, stock and SKUs",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "create tables or indexes before serving"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, cfg, c.Bool("migrate"))
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API, the gRPC health endpoint and the order listener",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "create tables or indexes before serving"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, cfg, c.Bool("migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the tables or indexes of the configured record store",
				Action: func(ctx context.Context, c *cli.Command) error {
					return migrate(ctx, cfg)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	return logger.NewZapLogger(logConfig)
}

func migrate(ctx context.Context, cfg *config.Config) error {
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	st, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	if err := st.migrate(ctx); err != nil {
		return err
	}
	appLogger.Info("Migration complete", zap.String("driver", cfg.Store.Driver))
	return nil
}

func serve(ctx context.Context, cfg *config.Config, runMigrations bool) error {
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store
	st, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			appLogger.Warn("failed to close record store", zap.Error(err))
		}
	}()
	if runMigrations {
		if err := st.migrate(ctx); err != nil {
			return err
		}
		appLogger.Info("Migration complete", zap.String("driver", cfg.Store.Driver))
	}

	// Product cache. The service runs without it.
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, product cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			defer redisClient.Close()
		}
	}

	// Use cases
	backoff := retry.Backoff{Initial: cfg.SKU.RetryBackoff, Max: cfg.SKU.RetryMaxBackoff}
	allocator := sku.NewAllocator(st.categories, st.products, sku.Config{
		MaxAttempts: cfg.SKU.MaxAttempts,
		PadWidth:    cfg.SKU.PadWidth,
		Backoff:     backoff,
	}, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(st.products, st.categories, allocator, redisClient, prodUCPkg.Config{
		MaxAttempts: cfg.SKU.MaxAttempts,
		CacheTTL:    cfg.Redis.TTL,
		Backoff:     backoff,
	}, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(st.categories, st.products, allocator, redisClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(st.products, redisClient, appLogger)

	// Handlers
	validate := validation.New()
	resp := response.New(appLogger)
	router := server.NewRouter(server.Handlers{
		Product:   prodH.NewProductHandler(prodUC, validate, resp, appLogger),
		Category:  catH.NewCategoryHandler(catUC, validate, resp, appLogger),
		Inventory: invH.NewInventoryHandler(invUC, validate, resp, appLogger),
	}, resp, appLogger, cfg.Server.RequestTimeout)

	httpServer := &http.Server{
		Addr:              withColon(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := server.NewGRPCServer(server.PingFunc(st.ping), appLogger)
	lis, err := net.Listen("tcp", withColon(cfg.Server.GRPCPort))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		return grpcServer.Server.Serve(lis)
	})

	g.Go(func() error {
		grpcServer.WatchStore(gctx, cfg.Server.HealthInterval)
		return nil
	})

	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		listener := invListenerPkg.NewInventoryListener(consumer, invUC, appLogger)
		g.Go(func() error {
			listener.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.Server.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	appLogger.Info("Server stopped")
	return nil
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
