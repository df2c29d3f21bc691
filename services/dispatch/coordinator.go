package dispatch

import (
	"context"
	"sync"
	"time"

	"schedcore/config"
	eventRepo "schedcore/database/repository/event"
	"schedcore/services/notification"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator runs a pool of independent workers that claim due events from
// the durable store and hand them to the delivery collaborator. Multiple
// processes may run coordinators against the same store: the claim-with-lease
// pattern (worker identity plus expiry on each claim) keeps delivery
// effectively exactly-once without any cross-process lock.
type Coordinator struct {
	Events   eventRepo.EventRepository
	Deliver  notification.Deliverer
	Cache    *redis.Client
	Cfg      config.DispatchConfig
	Logger   *zap.Logger
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewCoordinator(events eventRepo.EventRepository, deliver notification.Deliverer, cache *redis.Client, cfg config.DispatchConfig, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		Events:  events,
		Deliver: deliver,
		Cache:   cache,
		Cfg:     cfg,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Run starts the worker pool and blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	workers := c.Cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerID := "dispatch-" + uuid.New().String()
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.runWorker(ctx, id)
		}(workerID)
	}
	wg.Wait()
}

func (c *Coordinator) runWorker(ctx context.Context, workerID string) {
	logger := c.Logger.With(zap.String("workerID", workerID))
	logger.Info("dispatch worker started")

	ticker := time.NewTicker(c.Cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatch worker stopping")
			return
		case <-ticker.C:
			c.heartbeat(ctx, workerID)
			if err := c.pollOnce(ctx, workerID, logger); err != nil {
				logger.Error("poll cycle failed", zap.Error(err))
			}
		}
	}
}

// pollOnce claims one batch of due events and processes each in isolation:
// one failing event never blocks the rest of the batch.
func (c *Coordinator) pollOnce(ctx context.Context, workerID string, logger *zap.Logger) error {
	claimed, err := c.Events.ClaimDue(ctx, workerID, c.now(), c.Cfg.LeaseTTL, c.Cfg.BatchSize)
	if err != nil {
		return err
	}
	for i := range claimed {
		c.processEvent(ctx, workerID, &claimed[i], logger)
	}
	return nil
}
