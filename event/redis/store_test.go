package redis

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

var (
	testRedisClient    *redis.Client
	testRedisContainer testcontainers.Container
	skipIntegration    bool
)

// TestMain starts a Redis container once for all tests in this package and
// skips the integration tests (rather than failing the package) when Docker
// is unavailable.
func TestMain(m *testing.M) {
	ctx := context.Background()

	var containerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				containerErr = fmt.Errorf("docker not available: %v", r)
			}
		}()
		req := testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		}
		testRedisContainer, containerErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
	}()

	if containerErr != nil {
		fmt.Printf("Docker not available, integration tests will be skipped: %v\n", containerErr)
		skipIntegration = true
	} else {
		host, err := testRedisContainer.Host(ctx)
		if err != nil {
			skipIntegration = true
		} else {
			port, err := testRedisContainer.MappedPort(ctx, "6379")
			if err != nil {
				skipIntegration = true
			} else {
				testRedisClient = redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
				if err := testRedisClient.Ping(ctx).Err(); err != nil {
					skipIntegration = true
				}
			}
		}
	}

	code := m.Run()

	if testRedisClient != nil {
		_ = testRedisClient.Close()
	}
	if testRedisContainer != nil {
		_ = testRedisContainer.Terminate(ctx)
	}
	os.Exit(code)
}

func getRedis(t *testing.T) *redis.Client {
	t.Helper()
	if skipIntegration {
		t.Skip("Docker not available, skipping integration test")
	}
	require.NoError(t, testRedisClient.FlushDB(context.Background()).Err())
	return testRedisClient
}

func TestStoreAppendAndReplay(t *testing.T) {
	rdb := getRedis(t)
	ctx := context.Background()

	s, err := New(Options{Client: rdb})
	require.NoError(t, err)

	reqID := ident.RequestID("req-1")
	has, err := s.HasEventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.False(t, has)

	for i := 0; i < 3; i++ {
		e := event.New(event.TypePublish, invoke.Context{AssistantRequestID: reqID})
		e.Offset = i
		e.Data = []*message.Message{message.New(message.RoleUser, fmt.Sprintf("msg-%d", i))}
		require.NoError(t, s.Append(ctx, e))
	}

	has, err = s.HasEventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.True(t, has)

	events, err := s.EventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		require.Equal(t, i, e.Offset)
		require.Equal(t, fmt.Sprintf("msg-%d", i), e.Data[0].Content)
	}
}
