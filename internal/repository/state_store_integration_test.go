//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storymatrix/internal/database"
	"storymatrix/internal/models"
	"storymatrix/internal/repository"

	"github.com/docker/docker/client"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// StateStoreIntegrationSuite гоняет одни и те же проверки на PostgreSQL и Redis.
type StateStoreIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	logger      *zap.Logger
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
}

func (s *StateStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(s.pgPool, s.logger))

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())
}

func (s *StateStoreIntegrationSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *StateStoreIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE gallery_state")
	require.NoError(s.T(), err)
}

func (s *StateStoreIntegrationSuite) exercise(store repository.StateStore) {
	t := s.T()
	repo := repository.NewGalleryStateRepository(store, s.logger)

	state, err := repo.Load(s.ctx)
	require.NoError(t, err)
	require.False(t, state.FoundMoments)

	moments := []models.Moment{{ID: "m1", URL: "u1", CreatedAt: 1}}
	stories := []models.Story{{ID: "s1", Title: "T", MomentIDs: []string{"m1"}, CreatedAt: 2}}
	require.NoError(t, repo.Save(s.ctx, moments, stories))
	require.NoError(t, repo.Save(s.ctx, moments, stories))

	state, err = repo.Load(s.ctx)
	require.NoError(t, err)
	require.Equal(t, moments, state.Moments)
	require.Equal(t, stories, state.Stories)
}

func (s *StateStoreIntegrationSuite) TestPostgres() {
	store := repository.NewPgStateStore(s.pgPool, s.logger)
	require.NoError(s.T(), store.Ping(s.ctx))
	s.exercise(store)
}

func (s *StateStoreIntegrationSuite) TestRedis() {
	store := repository.NewRedisStateStore(s.redisClient, s.logger)
	require.NoError(s.T(), store.Ping(s.ctx))
	s.exercise(store)
}

func TestStateStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(StateStoreIntegrationSuite))
}
