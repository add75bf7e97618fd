// Package persist serializes and restores a DrivingSim+Scheduler pair at a
// quiescent point (spec.md §6's persistence surface), storing the
// resulting blob in Postgres. Adapted from the teacher's internal/db
// package: the same pgxpool singleton-with-Config-from-env pattern, a
// connection this package reuses rather than reimplementing.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Config holds database connection configuration, matching the teacher's
// db.Config shape field for field.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MinConns int32
	MaxConns int32
}

// LoadConfigFromEnv loads configuration from environment variables, with
// the same defaults and var names as the teacher's db.LoadConfigFromEnv
// (renamed to this module's domain: SIM_DB_* instead of DB_*).
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("SIM_DB_PORT", "5432"))
	minConns, _ := strconv.Atoi(getEnv("SIM_DB_MIN_CONNS", "2"))
	maxConns, _ := strconv.Atoi(getEnv("SIM_DB_MAX_CONNS", "10"))

	return &Config{
		Host:     getEnv("SIM_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("SIM_DB_NAME", "microsim"),
		User:     getEnv("SIM_DB_USER", "postgres"),
		Password: getEnv("SIM_DB_PASSWORD", ""),
		SSLMode:  getEnv("SIM_DB_SSLMODE", "disable"),
		MinConns: int32(minConns),
		MaxConns: int32(maxConns),
	}
}

// GetPool returns the process-wide connection pool (singleton pattern,
// matching db.GetDB).
func GetPool() (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		config := LoadConfigFromEnv()
		pool, poolErr = initPool(config)
	})
	return pool, poolErr
}

// InitPoolWithConfig initializes the pool with a custom config, useful for
// tests that point at an ephemeral database.
func InitPoolWithConfig(config *Config) (*pgxpool.Pool, error) {
	return initPool(config)
}

func initPool(config *Config) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, config.Port, config.Database, config.User, config.Password, config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	poolConfig.MinConns = config.MinConns
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	if config.Port == 6543 {
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return p, nil
}

// Close closes the pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck pings the database.
func HealthCheck(ctx context.Context) error {
	p, err := GetPool()
	if err != nil {
		return fmt.Errorf("database connection not initialized: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Snapshot is the serializable quiescent-point state: the scheduler's
// savestate-ready view plus cars/queues, keyed by stable identity so the
// encoded form is byte-for-byte deterministic (§6).
type Snapshot struct {
	SavedAt      time.Time                          `json:"saved_at"`
	LatestTime   simtime.T                           `json:"latest_time"`
	LastTime     simtime.T                           `json:"last_time"`
	PathRequests map[model.CarID]model.PathRequest   `json:"path_requests"`
	Cars         []CarRecord                         `json:"cars"`
	Queues       []QueueRecord                        `json:"queues"`
}

// CarRecord is one car's serializable state.
type CarRecord struct {
	ID      model.CarID   `json:"id"`
	Vehicle model.Vehicle `json:"vehicle"`
	// StateJSON carries the car's CarState as an opaque blob; the core
	// (internal/car) owns the actual struct and (de)serializes it, this
	// package only stores bytes.
	StateJSON []byte             `json:"state"`
	Path      []model.Traversable `json:"path"`
}

// QueueRecord is one queue's serializable car ordering.
type QueueRecord struct {
	On   model.Traversable `json:"on"`
	Cars []model.CarID      `json:"cars"`
}

// Marshal encodes a snapshot deterministically.
func Marshal(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a snapshot.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	return s, err
}

// SaveSnapshot persists a snapshot under a named scenario slot.
func SaveSnapshot(ctx context.Context, p *pgxpool.Pool, name string, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = p.Exec(ctx, `
		INSERT INTO sim_snapshot (name, saved_at, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET saved_at = $2, data = $3
	`, name, s.SavedAt, data)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot retrieves a previously saved snapshot.
func LoadSnapshot(ctx context.Context, p *pgxpool.Pool, name string) (Snapshot, error) {
	var data []byte
	err := p.QueryRow(ctx, `SELECT data FROM sim_snapshot WHERE name = $1`, name).Scan(&data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return Unmarshal(data)
}
