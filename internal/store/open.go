package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/heartofacheron/site/internal/config"
)

// Open connects the backend named by cfg.StoreBackend. The returned close
// function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case "memory":
		return NewMemoryStore(), noop, nil

	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		s := NewRedisStore(rdb, cfg.StorePrefix)
		return s, s.Close, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return s, func() error { pool.Close(); return nil }, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		s := NewMongoStore(client.Database(cfg.MongoDB))
		return s, func() error { return client.Disconnect(context.Background()) }, nil

	case "minio":
		s, err := NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, nil, fmt.Errorf("minio connect: %w", err)
		}
		return s, noop, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StoreBackend)
}
