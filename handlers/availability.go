package handlers

import (
	"net/http"
	"time"

	availabilityRepo "schedcore/database/repository/availability"
	"schedcore/models"
	"schedcore/services/availability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityHandler serves rule management, the free-slot read path, and
// on-demand slot generation.
type AvailabilityHandler struct {
	Service *availability.Service
	Rules   availabilityRepo.AvailabilityRuleRepository
	Logger  *zap.Logger
}

func NewAvailabilityHandler(svc *availability.Service, rules availabilityRepo.AvailabilityRuleRepository, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc, Rules: rules, Logger: logger}
}

type createRuleRequest struct {
	ResourceID     string              `json:"resourceId" binding:"required"`
	Weekday        int                 `json:"weekday"`
	Start          int                 `json:"start"`
	End            int                 `json:"end" binding:"required"`
	Break          *models.BreakWindow `json:"break"`
	EffectiveFrom  string              `json:"effectiveFrom"`
	EffectiveUntil string              `json:"effectiveUntil"`
}

func (h *AvailabilityHandler) CreateRule(c *gin.Context) {
	var input createRuleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Weekday < 0 || input.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be in [0,6]"})
		return
	}
	if input.Start < 0 || input.End > 24*60 || input.Start >= input.End {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start/end must be minutes from midnight with start < end"})
		return
	}
	if input.Break != nil && (input.Break.Start < input.Start || input.Break.End > input.End || input.Break.Start >= input.Break.End) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "break window must sit inside the rule window"})
		return
	}

	effectiveFrom := time.Now().UTC()
	if input.EffectiveFrom != "" {
		t, err := time.Parse("2006-01-02", input.EffectiveFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effectiveFrom, want YYYY-MM-DD"})
			return
		}
		effectiveFrom = t
	}
	var effectiveUntil *time.Time
	if input.EffectiveUntil != "" {
		t, err := time.Parse("2006-01-02", input.EffectiveUntil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effectiveUntil, want YYYY-MM-DD"})
			return
		}
		effectiveUntil = &t
	}
	if effectiveUntil != nil && effectiveUntil.Before(effectiveFrom) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effectiveUntil must not precede effectiveFrom"})
		return
	}

	rule := models.AvailabilityRule{
		ID:             uuid.New().String(),
		ResourceID:     input.ResourceID,
		Weekday:        time.Weekday(input.Weekday),
		Start:          input.Start,
		End:            input.End,
		Break:          input.Break,
		EffectiveFrom:  effectiveFrom,
		EffectiveUntil: effectiveUntil,
		Active:         true,
	}
	if err := h.Rules.Create(c.Request.Context(), &rule); err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	resourceID := c.Param("resourceId")
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	slots, err := h.Service.FreeSlots(c.Request.Context(), resourceID, from, to)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resourceId": resourceID, "slots": slots})
}

func (h *AvailabilityHandler) GenerateSlots(c *gin.Context) {
	resourceID := c.Param("resourceId")
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	created, err := h.Service.GenerateSlots(c.Request.Context(), resourceID, from, to)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resourceId": resourceID, "created": created})
}

// parseDateRange reads the from/to query params as resource-local dates.
// Defaults to the next 7 days when absent.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date, want YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date, want YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'to' must not precede 'from'"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
