package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"schedcore/config"
	availabilityRepo "schedcore/database/repository/availability"
	timeslotRepo "schedcore/database/repository/timeslot"
	"schedcore/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const freeSlotsCacheTTL = time.Minute

// Service generates bookable slots from availability rules and serves the
// free-slot read path. Reads go through a short-lived Redis cache keyed by a
// per-resource version counter, so invalidation is a single INCR.
type Service struct {
	Rules  availabilityRepo.AvailabilityRuleRepository
	Slots  timeslotRepo.TimeSlotRepository
	Cache  *redis.Client
	Cfg    config.SlotConfig
	Logger *zap.Logger
}

func NewService(rules availabilityRepo.AvailabilityRuleRepository, slots timeslotRepo.TimeSlotRepository, cache *redis.Client, cfg config.SlotConfig, logger *zap.Logger) *Service {
	return &Service{Rules: rules, Slots: slots, Cache: cache, Cfg: cfg, Logger: logger}
}

// FreeSlots returns the available slots for a resource inside the date window.
func (s *Service) FreeSlots(ctx context.Context, resourceID string, from, to time.Time) ([]models.TimeSlot, error) {
	fromDate := from.Format("2006-01-02")
	toDate := to.Format("2006-01-02")

	cacheKey := ""
	if s.Cache != nil {
		ver, err := s.Cache.Get(ctx, versionKey(resourceID)).Result()
		if err != nil && err != redis.Nil {
			s.Logger.Warn("availability cache unavailable, serving from store", zap.Error(err))
		} else {
			cacheKey = fmt.Sprintf("avail:%s:%s:%s:%s", resourceID, ver, fromDate, toDate)
			if raw, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
				var cached []models.TimeSlot
				if json.Unmarshal([]byte(raw), &cached) == nil {
					return cached, nil
				}
			}
		}
	}

	slots, err := s.Slots.ListAvailable(ctx, resourceID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if raw, err := json.Marshal(slots); err == nil {
			_ = s.Cache.Set(ctx, cacheKey, raw, freeSlotsCacheTTL).Err()
		}
	}
	return slots, nil
}

// InvalidateResource bumps the resource's cache version so stale availability
// answers age out immediately after a booking or cancellation.
func (s *Service) InvalidateResource(ctx context.Context, resourceID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Incr(ctx, versionKey(resourceID)).Err(); err != nil {
		s.Logger.Warn("failed to bump availability cache version",
			zap.String("resourceID", resourceID), zap.Error(err))
	}
}

func versionKey(resourceID string) string {
	return "avail:ver:" + resourceID
}
