package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/category"
	catRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/category/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/mongodb"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/product/repository"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	driverPostgres = "postgres"
	driverMongo    = "mongo"
	driverMemory   = "memory"
)

// recordStore bundles the repositories of one backend with its lifecycle.
type recordStore struct {
	products   product.Repository
	categories category.Repository
	ping       func(ctx context.Context) error
	migrate    func(ctx context.Context) error
	close      func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*recordStore, error) {
	switch cfg.Store.Driver {
	case driverPostgres:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: secs(cfg.Postgres.ConnMaxLifetime),
			ConnMaxIdleTime: secs(cfg.Postgres.ConnMaxIdleTime),
		})
		if err != nil {
			return nil, err
		}
		log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		return &recordStore{
			products:   prodRepoPkg.NewPGRepository(db),
			categories: catRepoPkg.NewPGRepository(db),
			ping:       db.PingContext,
			migrate:    func(ctx context.Context) error { return postgres.Migrate(ctx, db) },
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case driverMongo:
		client, db, err := mongodb.NewMongo(ctx, &mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return &recordStore{
			products:   prodRepoPkg.NewMongoRepository(db),
			categories: catRepoPkg.NewMongoRepository(db),
			ping:       func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			migrate:    func(ctx context.Context) error { return mongodb.EnsureIndexes(ctx, db) },
			close:      client.Disconnect,
		}, nil

	case driverMemory:
		log.Warn("Using in-memory record store, data is lost on exit")
		noop := func(context.Context) error { return nil }
		return &recordStore{
			products:   prodRepoPkg.NewMemoryRepository(),
			categories: catRepoPkg.NewMemoryRepository(),
			ping:       noop,
			migrate:    noop,
			close:      noop,
		}, nil
	}

	return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s, %s or %s)",
		cfg.Store.Driver, driverPostgres, driverMongo, driverMemory)
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
