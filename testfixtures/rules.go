package testfixtures

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"schedcore/models"
)

// FakeAvailabilityRuleRepo is an in-memory AvailabilityRuleRepository.
type FakeAvailabilityRuleRepo struct {
	mu    sync.Mutex
	items map[string]*models.AvailabilityRule
}

func NewFakeAvailabilityRuleRepo() *FakeAvailabilityRuleRepo {
	return &FakeAvailabilityRuleRepo{items: make(map[string]*models.AvailabilityRule)}
}

func (r *FakeAvailabilityRuleRepo) Create(_ context.Context, rule *models.AvailabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	r.items[rule.ID] = &cp
	return nil
}

func (r *FakeAvailabilityRuleRepo) Update(_ context.Context, rule *models.AvailabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rule.ID]; !ok {
		return errors.New("availability rule not found")
	}
	cp := *rule
	r.items[rule.ID] = &cp
	return nil
}

func (r *FakeAvailabilityRuleRepo) GetByID(_ context.Context, id string) (*models.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, errors.New("availability rule not found")
	}
	cp := *rule
	return &cp, nil
}

func (r *FakeAvailabilityRuleRepo) ListActiveForRange(_ context.Context, resourceID string, from, to time.Time) ([]models.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromDay := from.Format("2006-01-02")
	toDay := to.Format("2006-01-02")

	var out []models.AvailabilityRule
	for _, rule := range r.items {
		if rule.ResourceID != resourceID || !rule.Active {
			continue
		}
		if rule.EffectiveUntil != nil && rule.EffectiveUntil.Format("2006-01-02") < fromDay {
			continue
		}
		if rule.EffectiveFrom.Format("2006-01-02") > toDay {
			continue
		}
		out = append(out, *rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FakeAvailabilityRuleRepo) DistinctResourceIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, rule := range r.items {
		if !seen[rule.ResourceID] {
			seen[rule.ResourceID] = true
			out = append(out, rule.ResourceID)
		}
	}
	sort.Strings(out)
	return out, nil
}
