// Package database opens the backing stores with retry so the service
// tolerates starting before its dependencies.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"
	"github.com/socialhub/socialhub/backend/go-services/internal/config"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Retry bounds the connection attempts made at startup.
type Retry struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64
}

// DefaultRetry doubles from one second for five attempts.
var DefaultRetry = Retry{InitialInterval: time.Second, MaxInterval: 10 * time.Second, MaxAttempts: 5}

func (r Retry) policy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.InitialInterval
	bo.MaxInterval = r.MaxInterval
	bo.MaxElapsedTime = 0
	var b backoff.BackOff = bo
	if r.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, r.MaxAttempts-1)
	}
	return backoff.WithContext(b, ctx)
}

// ConnectMongo opens a connection and pings it, retrying on failure. Caller
// should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, cfg config.MongoDBConfig, retry Retry) (*mongo.Client, error) {
	var client *mongo.Client
	err := backoff.RetryNotify(func() error {
		c, err := connectMongoOnce(ctx, cfg.URI, cfg.Timeout)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, retry.policy(ctx), func(err error, wait time.Duration) {
		logger.Warnf("mongo not reachable, retrying in %s: %v", wait, err)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func connectMongoOnce(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectRedis creates a client and waits until it answers PING.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, retry Retry) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := backoff.RetryNotify(func() error {
		return client.Ping(ctx).Err()
	}, retry.policy(ctx), func(err error, wait time.Duration) {
		logger.Warnf("redis not reachable, retrying in %s: %v", wait, err)
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
