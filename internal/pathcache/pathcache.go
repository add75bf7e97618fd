// Package pathcache caches resolved car/pedestrian paths in Redis, keyed by
// (start, goal) traversable, and provides the distributed lock a
// multi-process deployment needs around parking-spot reservation so two
// processes racing to reserve the same spot can't both win it (SPEC_FULL.md's
// domain-stack wiring of the teacher's redis cache). Adapted from the
// teacher's internal/cache/redis.go: same singleton-client and SetNX-lock
// idioms, generalized from route caching to path caching.
package pathcache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transitsim/microsim/internal/model"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration, matching the teacher's cache.Config.
type Config struct {
	Host       string
	Port       int
	Password   string
	DB         int
	TTL        time.Duration
	MutexTTL   time.Duration
	TLSEnabled bool
}

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("SIM_REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("SIM_REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("SIM_PATH_CACHE_TTL", "10m"))
	mutexTTL, _ := time.ParseDuration(getEnv("SIM_SPOT_LOCK_TTL", "5s"))

	return &Config{
		Host:       getEnv("SIM_REDIS_HOST", "localhost"),
		Port:       port,
		Password:   getEnv("SIM_REDIS_PASSWORD", ""),
		DB:         db,
		TTL:        ttl,
		MutexTTL:   mutexTTL,
		TLSEnabled: getEnv("SIM_REDIS_TLS_ENABLED", "false") == "true",
	}
}

// GetClient returns the process-wide Redis client.
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		config := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
		if config.TLSEnabled {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to redis: %w", err)
		}
	})
	return client, clientErr
}

// Close closes the Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// PathKey derives a deterministic cache key for a start/goal pair.
func PathKey(req model.PathRequest) string {
	data := fmt.Sprintf("%s->%s", req.Start, req.Goal)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("path:%x", hash[:8])
}

// SpotLockKey derives the lock key for a parking spot.
func SpotLockKey(spot model.ParkingSpotID) string {
	return fmt.Sprintf("lock:spot:%d", spot)
}

// GetPath retrieves a cached path, returning (nil, nil) on a cache miss.
func GetPath(ctx context.Context, key string) ([]model.Traversable, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var path []model.Traversable
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, fmt.Errorf("unmarshal cached path: %w", err)
	}
	return path, nil
}

// SetPath caches a resolved path.
func SetPath(ctx context.Context, key string, path []model.Traversable, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	data, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// AcquireSpotLock attempts to win the distributed parking-spot reservation
// race across processes sharing a Redis instance — the cross-process
// counterpart to collab.InMemoryParking's in-process mutex.
func AcquireSpotLock(ctx context.Context, spot model.ParkingSpotID, ttl time.Duration) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	return c.SetNX(ctx, SpotLockKey(spot), "1", ttl).Result()
}

// ReleaseSpotLock releases a parking-spot lock.
func ReleaseSpotLock(ctx context.Context, spot model.ParkingSpotID) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Del(ctx, SpotLockKey(spot)).Err()
}

// HealthCheck pings Redis.
func HealthCheck(ctx context.Context) error {
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("redis client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
