package internal

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"library/services/book/config"
	"library/services/book/internal/db"
	interfaces "library/shared/pkg/interface"
	"library/shared/pkg/model"
	"library/shared/pkg/repository"
	"library/shared/pkg/rpc"
	"library/shared/pkg/utils"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func Setup() {
	cfg := config.LoadServiceConfig()
	utils.ConfigureLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		log.WithField("err", err).Fatal("Error opening book store")
	}
	defer closeStore()

	redisConfig := config.LoadRedisConfig()
	rdb, err := StartRedisClient(redisConfig)
	if err != nil {
		log.WithFields(log.Fields{"addr": redisConfig.Addr, "err": err}).Warn("Redis unavailable, serving without cache")
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.WithField("err", err).Error("Error closing Redis client")
			}
		}()
	}

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.WithFields(log.Fields{"port": cfg.Port, "err": err}).Fatal("Error listening")
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor))
	svc := NewBookService(NewBookRepository(store), rdb, redisConfig.CacheTTL)
	rpc.RegisterBookServiceServer(server, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", lis.Addr().String()).Info("Book service started. Waiting for messages...")
		return server.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down book service...")
		server.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithField("err", err).Error("Book service stopped with error")
		return
	}
	log.Info("Book service shut down gracefully")
}

// OpenStore returns the books collection of the configured backend and a
// function releasing it.
func OpenStore(ctx context.Context, kind string) (interfaces.DocumentStore, func(), error) {
	switch kind {
	case config.StoreMemory:
		memory := repository.NewMemoryDatabase()
		memory.CreateTextIndex(model.BookCollection, model.BookTextFields...)
		return memory.Collection(model.BookCollection), func() {}, nil

	case config.StoreMongo:
		client, database, err := db.Connect(config.LoadMongoConfig())
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Disconnect(context.TODO()); err != nil {
				log.WithField("err", err).Error("Error disconnecting from database")
			}
		}

		books := repository.NewRepository(database, model.BookCollection)
		if err := db.EnsureBookIndexes(ctx, books); err != nil {
			closeClient()
			return nil, nil, fmt.Errorf("failed to create book indexes: %w", err)
		}
		return books, closeClient, nil
	}
	return nil, nil, fmt.Errorf("unknown book store %q", kind)
}

func StartRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	options := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}
	rdb := redis.NewClient(options)

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}

	if err := SetupRedisCache(rdb, config.CacheConfig{
		MaxMemory: "256mb",
		Policy:    "allkeys-lru",
	}); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func SetupRedisCache(client *redis.Client, cfg config.CacheConfig) error {
	ctx := context.Background()

	if cfg.MaxMemory != "" {
		if err := client.ConfigSet(ctx, "maxmemory", cfg.MaxMemory).Err(); err != nil {
			return fmt.Errorf("failed to set maxmemory: %w", err)
		}
		log.WithField("maxmemory", cfg.MaxMemory).Info("Set Redis max memory")
	}

	if cfg.Policy != "" {
		if err := client.ConfigSet(ctx, "maxmemory-policy", cfg.Policy).Err(); err != nil {
			return fmt.Errorf("failed to set maxmemory-policy: %w", err)
		}
		log.WithField("policy", cfg.Policy).Info("Set Redis eviction policy")
	}

	return VerifyConfig(client)
}

func VerifyConfig(client *redis.Client) error {
	ctx := context.Background()

	maxMem, err := client.ConfigGet(ctx, "maxmemory").Result()
	if err != nil {
		return fmt.Errorf("failed to get maxmemory config: %w", err)
	}

	policy, err := client.ConfigGet(ctx, "maxmemory-policy").Result()
	if err != nil {
		return fmt.Errorf("failed to get maxmemory-policy config: %w", err)
	}

	log.WithFields(log.Fields{"maxmemory": maxMem, "policy": policy}).Info("Current Redis configuration")
	return nil
}
