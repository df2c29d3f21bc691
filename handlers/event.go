package handlers

import (
	"net/http"
	"strconv"
	"time"

	"schedcore/middleware"
	"schedcore/models"
	"schedcore/services/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventHandler exposes the generic event scheduling surface. Appointment
// lifecycle events never pass through here; they are managed by the booking
// service internally.
type EventHandler struct {
	Scheduler scheduler.EventScheduler
	Logger    *zap.Logger
}

func NewEventHandler(sched scheduler.EventScheduler, logger *zap.Logger) *EventHandler {
	return &EventHandler{Scheduler: sched, Logger: logger}
}

type scheduleEventRequest struct {
	Type        string             `json:"type" binding:"required"`
	FireAtLocal string             `json:"fireAtLocal" binding:"required"` // "2006-01-02T15:04" wall clock
	ResourceTZ  string             `json:"resourceTz" binding:"required"`
	UserTZ      string             `json:"userTz"`
	ExecutionTZ string             `json:"executionTz"`
	Payload     map[string]string  `json:"payload"`
	Recurrence  *models.Recurrence `json:"recurrence"`
}

func (h *EventHandler) ScheduleEvent(c *gin.Context) {
	var input scheduleEventRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	local, err := time.Parse("2006-01-02T15:04", input.FireAtLocal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fireAtLocal, want YYYY-MM-DDTHH:MM wall-clock time"})
		return
	}

	eventID, err := h.Scheduler.Schedule(c.Request.Context(), scheduler.ScheduleRequest{
		Type:        input.Type,
		OwnerID:     middleware.CallerID(c),
		FireAtLocal: local,
		ResourceTZ:  input.ResourceTZ,
		UserTZ:      input.UserTZ,
		ExecutionTZ: input.ExecutionTZ,
		Payload:     input.Payload,
		Recurrence:  input.Recurrence,
	})
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"eventId": eventID})
}

func (h *EventHandler) CancelEvent(c *gin.Context) {
	cancelled, err := h.Scheduler.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": c.Param("id"), "cancelled": cancelled})
}

func (h *EventHandler) UpcomingEvents(c *gin.Context) {
	q := scheduler.UpcomingQuery{
		OwnerID:   middleware.CallerID(c),
		DisplayTZ: c.Query("tz"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp", "details": err.Error()})
			return
		}
		q.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp", "details": err.Error()})
			return
		}
		q.To = t
	}

	events, err := h.Scheduler.Upcoming(c.Request.Context(), q)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) DeadLetterEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := h.Scheduler.DeadLetters(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
