package queue

import (
	"log/slog"

	"github.com/air-con/task-manager/internal/config"
	"github.com/hibiken/asynq"
)

// DepthProbe reports the current size of the broker queues for the
// read-only status view. Probe failures degrade to -1 rather than erroring
// the view: the broker being down must not take the status endpoint with it.
type DepthProbe struct {
	inspector *asynq.Inspector
	queues    []string
	logger    *slog.Logger
}

// NewDepthProbe creates a DepthProbe over the configured queues.
func NewDepthProbe(cfg config.QueueConfig, logger *slog.Logger) *DepthProbe {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &DepthProbe{
		inspector: inspector,
		queues:    []string{cfg.DefaultQueue, cfg.CriticalQueue},
		logger:    logger.With("component", "queue_probe"),
	}
}

// Depths returns the number of tasks sitting in each configured queue,
// or -1 for a queue that could not be probed.
func (p *DepthProbe) Depths() map[string]int {
	depths := make(map[string]int, len(p.queues))

	for _, q := range p.queues {
		info, err := p.inspector.GetQueueInfo(q)
		if err != nil {
			p.logger.Error("failed to probe queue depth", "queue", q, "error", err)
			depths[q] = -1
			continue
		}
		depths[q] = info.Size
	}

	return depths
}

// Close releases the underlying broker connection.
func (p *DepthProbe) Close() error {
	return p.inspector.Close()
}
