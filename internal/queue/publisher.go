package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/air-con/task-manager/internal/config"
	"github.com/air-con/task-manager/internal/domain"
	"github.com/hibiken/asynq"
)

// MinPriority and MaxPriority bound the accepted numeric priority range.
const (
	MinPriority = 0
	MaxPriority = 9
)

// Publisher publishes one batch of task payloads as a single queue message
// at the given priority.
type Publisher interface {
	Publish(ctx context.Context, batch []domain.Payload, priority int) error
}

// ValidatePriority checks that the priority falls within the accepted
// numeric range.
func ValidatePriority(priority int) error {
	if priority < MinPriority || priority > MaxPriority {
		return domain.NewValidationError(
			"priority",
			fmt.Sprintf("must be between %d and %d", MinPriority, MaxPriority),
			domain.ErrInvalidPriority,
		)
	}
	return nil
}

// AsynqPublisher implements Publisher by enqueueing asynq tasks on Redis.
// Numeric priority maps onto broker queues: priorities at or above the
// configured threshold route to the critical queue, the rest to the
// default queue. Consumers weight the critical queue higher.
type AsynqPublisher struct {
	client *asynq.Client
	cfg    config.QueueConfig
	logger *slog.Logger
}

// NewAsynqPublisher creates an AsynqPublisher from the queue configuration.
func NewAsynqPublisher(cfg config.QueueConfig, logger *slog.Logger) *AsynqPublisher {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &AsynqPublisher{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "queue_publisher"),
	}
}

// Publish enqueues the batch as one task. The payload is the JSON array of
// the batch's payload objects, matching what the execution backend's
// handler expects.
func (p *AsynqPublisher) Publish(ctx context.Context, batch []domain.Payload, priority int) error {
	if len(batch) == 0 {
		return nil
	}

	if err := ValidatePriority(priority); err != nil {
		return err
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	queueName := p.QueueFor(priority)
	task := asynq.NewTask(p.cfg.TaskType, body)

	info, err := p.client.EnqueueContext(ctx, task, asynq.Queue(queueName))
	if err != nil {
		return fmt.Errorf("failed to publish batch to queue %q: %w", queueName, err)
	}

	p.logger.Info("published batch",
		"task_id", info.ID,
		"queue", queueName,
		"priority", priority,
		"batch_size", len(batch))

	return nil
}

// QueueFor returns the broker queue a given priority routes to.
func (p *AsynqPublisher) QueueFor(priority int) string {
	if priority >= p.cfg.HighPriorityMin {
		return p.cfg.CriticalQueue
	}
	return p.cfg.DefaultQueue
}

// Close releases the underlying broker connection.
func (p *AsynqPublisher) Close() error {
	return p.client.Close()
}
