package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const heartbeatTTL = 30 * time.Second

// heartbeat advertises the worker in Redis so operators can see the live pool
// (`KEYS dispatch:worker:*`). Purely observational; claims never depend on it.
func (c *Coordinator) heartbeat(ctx context.Context, workerID string) {
	if c.Cache == nil {
		return
	}
	key := "dispatch:worker:" + workerID
	if err := c.Cache.Set(ctx, key, c.now().Format(time.RFC3339), heartbeatTTL).Err(); err != nil {
		c.Logger.Debug("heartbeat write failed", zap.String("workerID", workerID), zap.Error(err))
	}
}
