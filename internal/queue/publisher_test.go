package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/air-con/task-manager/internal/config"
	"github.com/air-con/task-manager/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueueConfig(addr string) config.QueueConfig {
	return config.QueueConfig{
		RedisAddr:       addr,
		TaskType:        "task:process",
		DefaultQueue:    "default",
		CriticalQueue:   "critical",
		HighPriorityMin: 5,
		DefaultPriority: 3,
		InjectPriority:  5,
	}
}

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err, "miniredis.Run")
	t.Cleanup(s.Close)
	return s
}

func TestAsynqPublisher_RoutesByPriority(t *testing.T) {
	s := startMiniRedis(t)
	cfg := testQueueConfig(s.Addr())

	pub := NewAsynqPublisher(cfg, slog.Default())
	defer func() { _ = pub.Close() }()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: s.Addr()})
	defer func() { _ = inspector.Close() }()

	ctx := context.Background()
	batch := []domain.Payload{{"url": "https://example.com"}}

	require.NoError(t, pub.Publish(ctx, batch, cfg.DefaultPriority))
	require.NoError(t, pub.Publish(ctx, batch, cfg.InjectPriority))
	require.NoError(t, pub.Publish(ctx, batch, MaxPriority))

	defaultInfo, err := inspector.GetQueueInfo("default")
	require.NoError(t, err)
	assert.Equal(t, 1, defaultInfo.Size, "one batch at default priority")

	criticalInfo, err := inspector.GetQueueInfo("critical")
	require.NoError(t, err)
	assert.Equal(t, 2, criticalInfo.Size, "two batches at or above the high-priority threshold")
}

func TestAsynqPublisher_PayloadIsBatchJSON(t *testing.T) {
	s := startMiniRedis(t)
	cfg := testQueueConfig(s.Addr())

	pub := NewAsynqPublisher(cfg, slog.Default())
	defer func() { _ = pub.Close() }()

	batch := []domain.Payload{
		{"url": "https://example.com/1"},
		{"url": "https://example.com/2"},
	}
	require.NoError(t, pub.Publish(context.Background(), batch, 0))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: s.Addr()})
	defer func() { _ = inspector.Close() }()

	tasks, err := inspector.ListPendingTasks("default")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task:process", tasks[0].Type)

	var decoded []domain.Payload
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &decoded))
	assert.Equal(t, batch, decoded)
}

func TestAsynqPublisher_EmptyBatchIsNoop(t *testing.T) {
	s := startMiniRedis(t)
	pub := NewAsynqPublisher(testQueueConfig(s.Addr()), slog.Default())
	defer func() { _ = pub.Close() }()

	require.NoError(t, pub.Publish(context.Background(), nil, 3))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: s.Addr()})
	defer func() { _ = inspector.Close() }()

	_, err := inspector.GetQueueInfo("default")
	assert.Error(t, err, "no queue should have been created")
}

func TestAsynqPublisher_PublishFailure(t *testing.T) {
	s := startMiniRedis(t)
	cfg := testQueueConfig(s.Addr())
	pub := NewAsynqPublisher(cfg, slog.Default())
	defer func() { _ = pub.Close() }()

	s.Close() // broker goes away

	err := pub.Publish(context.Background(), []domain.Payload{{"k": "v"}}, 3)
	assert.Error(t, err)
}

func TestValidatePriority(t *testing.T) {
	assert.NoError(t, ValidatePriority(MinPriority))
	assert.NoError(t, ValidatePriority(MaxPriority))
	assert.NoError(t, ValidatePriority(5))

	assert.ErrorIs(t, ValidatePriority(-1), domain.ErrInvalidPriority)
	assert.ErrorIs(t, ValidatePriority(10), domain.ErrInvalidPriority)
}

func TestDepthProbe_DegradesOnFailure(t *testing.T) {
	s := startMiniRedis(t)
	cfg := testQueueConfig(s.Addr())

	pub := NewAsynqPublisher(cfg, slog.Default())
	require.NoError(t, pub.Publish(context.Background(), []domain.Payload{{"k": "v"}}, 3))
	require.NoError(t, pub.Close())

	probe := NewDepthProbe(cfg, slog.Default())
	defer func() { _ = probe.Close() }()

	depths := probe.Depths()
	assert.Equal(t, 1, depths["default"])

	s.Close()

	depths = probe.Depths()
	assert.Equal(t, -1, depths["default"], "a failed probe reports -1")
	assert.Equal(t, -1, depths["critical"])
}
