package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repo "bucketList/internal/repository"
	slot "bucketList/internal/repository/slot/redis"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisSlotSuite для интеграционных тестов с Redis
type RedisSlotSuite struct {
	suite.Suite
	container testcontainers.Container
	addr      string
	client    *redis.Client
	storage   *slot.Storage
	ctx       context.Context
}

func (s *RedisSlotSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "6379")
	require.NoError(s.T(), err)

	s.addr = fmt.Sprintf("%s:%s", host, port.Port())
	s.storage, err = slot.New(s.ctx, &redis.Options{Addr: s.addr}, "bucket:items")
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{Addr: s.addr})
}

func (s *RedisSlotSuite) TearDownSuite() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisSlotSuite) SetupTest() {
	require.NoError(s.T(), s.client.FlushDB(s.ctx).Err())
}

func TestRedisSlotSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(RedisSlotSuite))
}

func (s *RedisSlotSuite) TestStorage_ReadEmpty() {
	value, err := s.storage.Read(s.ctx)
	assert.ErrorIs(s.T(), err, repo.ErrSlotEmpty)
	assert.Nil(s.T(), value)
}

func (s *RedisSlotSuite) TestStorage_WriteRead() {
	require.NoError(s.T(), s.storage.Write(s.ctx, []byte(`[{"id":"1"}]`)))
	require.NoError(s.T(), s.storage.Write(s.ctx, []byte(`[]`)))

	value, err := s.storage.Read(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "[]", string(value))

	version, err := s.storage.Version(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), version)

	raw, err := s.client.Get(s.ctx, "bucket:items").Result()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "[]", raw)
}

func (s *RedisSlotSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}

func (s *RedisSlotSuite) TestStorage_Closed() {
	storage := slot.NewWithClient(redis.NewClient(&redis.Options{Addr: s.addr}), "bucket:closed")
	require.NoError(s.T(), storage.Close())

	_, err := storage.Read(s.ctx)
	assert.ErrorIs(s.T(), err, repo.ErrSlotClosed)
}

// TestNew_Unreachable не требует контейнера
func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := slot.New(ctx, &redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}, "items")
	assert.Error(t, err)
}
