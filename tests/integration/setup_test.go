package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestEnv holds the shared test environment resources.
type TestEnv struct {
	Redis          *goredis.Client
	RedisContainer testcontainers.Container
	Logger         *zap.Logger
	ctx            context.Context
}

var testEnv *TestEnv

// SetupTestEnvironment starts (or connects to) Redis for integration
// tests. Set REDIS_URL to reuse an external instance in CI; otherwise a
// throwaway container is started.
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	if os.Getenv("REDIS_URL") != "" {
		return setupExternalRedis(t, ctx)
	}
	return setupContainer(t, ctx)
}

func setupExternalRedis(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	opt, err := goredis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	testEnv = &TestEnv{
		Redis:  client,
		Logger: logger,
		ctx:    ctx,
	}
	return testEnv
}

func setupContainer(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	redisContainer, err := redis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}

	testEnv = &TestEnv{
		Redis:          client,
		RedisContainer: redisContainer,
		Logger:         logger,
		ctx:            ctx,
	}
	return testEnv
}

// TeardownTestEnvironment releases the shared resources.
func TeardownTestEnvironment(t *testing.T) {
	if testEnv == nil {
		return
	}

	ctx := context.Background()

	if testEnv.Redis != nil {
		testEnv.Redis.Close()
	}
	if testEnv.RedisContainer != nil {
		if err := testEnv.RedisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	}
	testEnv = nil
}

// FlushRedis clears all keys between tests.
func FlushRedis(t *testing.T, client *goredis.Client) {
	if err := client.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
}
