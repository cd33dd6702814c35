package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bookorder/internal/catalog"
	"bookorder/internal/config"
	"bookorder/internal/database"
	"bookorder/internal/handler"
	"bookorder/internal/repository"
	"bookorder/internal/router"
	"bookorder/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the orders schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		URL:             connStr,
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_books", "orders"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// CapturingSender records issued codes instead of delivering them.
type CapturingSender struct {
	mu    sync.Mutex
	codes map[string][]string
}

func NewCapturingSender() *CapturingSender {
	return &CapturingSender{codes: make(map[string][]string)}
}

func (s *CapturingSender) Send(ctx context.Context, phoneNumber, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phoneNumber] = append(s.codes[phoneNumber], code)
	return nil
}

// LastCode returns the most recent code sent to phoneNumber.
func (s *CapturingSender) LastCode(phoneNumber string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.codes[phoneNumber]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

// Count returns how many codes were sent to phoneNumber.
func (s *CapturingSender) Count(phoneNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes[phoneNumber])
}

// TestServer is the order API running against real storage.
type TestServer struct {
	Server *httptest.Server
	Redis  *miniredis.Miniredis
	Sender *CapturingSender
}

// SetupTestServer starts the full HTTP stack on top of testDB and a
// miniredis session store.
func SetupTestServer(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()

	logger := zerolog.Nop()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	sender := NewCapturingSender()
	orderService := service.NewOrderService(
		repository.NewOrderRepository(testDB.Pool, logger),
		repository.NewSessionStore(redisClient, logger),
		catalog.Default(),
		sender,
		config.VerificationConfig{SessionTTL: 2 * time.Minute, CodeLength: 6, MaxAttempts: 5},
		logger,
	)

	server := httptest.NewServer(router.New(handler.NewOrderHandler(orderService, logger), logger))
	t.Cleanup(server.Close)

	return &TestServer{Server: server, Redis: mr, Sender: sender}
}
