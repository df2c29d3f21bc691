package cron

import (
	"context"
	"time"

	"schedcore/config"
	availabilityRepo "schedcore/database/repository/availability"
	"schedcore/services/availability"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartSlotRegeneration runs the nightly job that keeps the rolling slot
// horizon materialized for every resource with active rules. Generation is
// idempotent, so overlapping runs after a missed night are harmless.
func StartSlotRegeneration(svc *availability.Service, rules availabilityRepo.AvailabilityRuleRepository, cfg config.SlotConfig, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cfg.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		regenerateAll(ctx, svc, rules, cfg, logger)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("slot regeneration scheduled", zap.String("spec", cfg.CronSpec))
	return c, nil
}

func regenerateAll(ctx context.Context, svc *availability.Service, rules availabilityRepo.AvailabilityRuleRepository, cfg config.SlotConfig, logger *zap.Logger) {
	resourceIDs, err := rules.DistinctResourceIDs(ctx)
	if err != nil {
		logger.Error("slot regeneration: failed to list resources", zap.Error(err))
		return
	}

	from := time.Now().UTC()
	to := from.AddDate(0, 0, cfg.HorizonDays)

	total := 0
	for _, resourceID := range resourceIDs {
		created, err := svc.GenerateSlots(ctx, resourceID, from, to)
		if err != nil {
			logger.Error("slot regeneration failed for resource",
				zap.String("resourceID", resourceID), zap.Error(err))
			continue
		}
		total += created
	}
	logger.Info("slot regeneration complete",
		zap.Int("resources", len(resourceIDs)),
		zap.Int("created", total))
}
