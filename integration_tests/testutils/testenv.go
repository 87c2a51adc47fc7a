// Package testutils runs the Postgres and NATS containers integration tests
// share and builds the services under test on top of them.
package testutils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/bundb"
	"github.com/farraranalytics/MBB-Survivor-sub001/config"
	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/containers"
)

// TestEnvironment holds the containers and connections of one test binary.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DB            *bun.DB
	DSN           string
	NatsURL       string
	Config        *config.Config

	natsOnce sync.Once
	natsErr  error
}

var (
	globalEnv     *TestEnvironment
	globalEnvErr  error
	globalEnvOnce sync.Once
)

// GetOrCreateTestEnv returns the binary-wide environment, starting Postgres
// on first use. Tests are skipped under -short.
func GetOrCreateTestEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need Docker; skipped in -short mode")
	}
	globalEnvOnce.Do(func() {
		globalEnv, globalEnvErr = newTestEnvironment()
	})
	if globalEnvErr != nil {
		t.Fatalf("failed to set up test environment: %v", globalEnvErr)
	}
	return globalEnv
}

func newTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer
	env.DSN = dsn

	db, err := bundb.Open(ctx, dsn)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.DB = db

	if err := runMigrations(ctx, db, dsn); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: dsn},
		Clock: config.ClockConfig{
			SimulationEnabled: true,
			CacheTTL:          10 * time.Millisecond,
			Store:             config.ClockStorePostgres,
		},
		Admin: config.AdminConfig{JWTSecret: "integration-secret", RateLimit: 100, Burst: 100},
		HTTP:  config.HTTPConfig{Addr: "127.0.0.1:0"},
		Queue: config.QueueConfig{MaxWorkers: 2, ReconcileInterval: time.Hour},
		Observability: config.ObservabilityConfig{
			ServiceName: "survivor-integration",
			Environment: "test",
			LogLevel:    "error",
		},
	}
	return env, nil
}

// RequireNATS starts the NATS container the first time a test needs it and
// returns its URL.
func (env *TestEnvironment) RequireNATS(t *testing.T) string {
	t.Helper()
	env.natsOnce.Do(func() {
		c, url, err := containers.SetupNatsContainer(env.Ctx)
		if err != nil {
			env.natsErr = err
			return
		}
		env.NatsContainer = c
		env.NatsURL = url
		env.Config.NATS.URL = url
	})
	if env.natsErr != nil {
		t.Fatalf("failed to set up NATS: %v", env.natsErr)
	}
	return env.NatsURL
}

// Reset empties every application table and the River job table.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	if err := CleanupDatabase(env.Ctx, env.DB); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// Cleanup tears down connections and containers.
func (env *TestEnvironment) Cleanup() {
	if env.CancelContext != nil {
		env.CancelContext()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}

// RunMain is the body of every integration package's TestMain.
func RunMain(m *testing.M) {
	oldAppEnv := os.Getenv("APP_ENV")
	os.Setenv("APP_ENV", "test")

	code := m.Run()

	if globalEnv != nil {
		globalEnv.Cleanup()
	}
	os.Setenv("APP_ENV", oldAppEnv)
	os.Exit(code)
}

// WaitFor polls check until it returns nil or timeout passes.
func WaitFor(timeout, interval time.Duration, check func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := check()
			if err == nil {
				return nil
			}
			return fmt.Errorf("timed out waiting: %w", err)
		case <-ticker.C:
			if err := check(); err == nil {
				return nil
			}
		}
	}
}
