package availability

import (
	"context"
	"fmt"
	"time"

	"schedcore/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateSlots expands the resource's active availability rules into concrete
// TimeSlots for every date in [from, to]. Duplicate (resource, date, start)
// keys are silently skipped, so repeated runs over overlapping ranges (the
// nightly regeneration window) are idempotent. An empty rule set yields zero
// slots and no error.
func (s *Service) GenerateSlots(ctx context.Context, resourceID string, from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("invalid date range: %s is before %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	rules, err := s.Rules.ListActiveForRange(ctx, resourceID, from, to)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	var slots []models.TimeSlot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for i := range rules {
			rule := &rules[i]
			if !rule.AppliesTo(day) {
				continue
			}
			slots = append(slots, s.sliceRule(rule, day.Format("2006-01-02"))...)
		}
	}
	if len(slots) == 0 {
		return 0, nil
	}

	created, err := s.Slots.CreateMany(ctx, slots)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.InvalidateResource(ctx, resourceID)
	}
	s.Logger.Info("generated timeslots",
		zap.String("resourceID", resourceID),
		zap.Int("created", created),
		zap.Int("candidates", len(slots)))
	return created, nil
}

// sliceRule cuts the rule's daily window into slot-duration chunks, dropping
// any chunk that intersects the rule's break window or would run past the
// window's end.
func (s *Service) sliceRule(rule *models.AvailabilityRule, date string) []models.TimeSlot {
	step := int(s.Cfg.SlotDuration.Minutes())
	if step <= 0 {
		step = 60
	}

	var slots []models.TimeSlot
	for start := rule.Start; start+step <= rule.End; start += step {
		end := start + step
		if rule.Break != nil && start < rule.Break.End && end > rule.Break.Start {
			continue
		}
		slots = append(slots, models.TimeSlot{
			ID:         uuid.New().String(),
			ResourceID: rule.ResourceID,
			Date:       date,
			Start:      start,
			End:        end,
			Available:  true,
		})
	}
	return slots
}
