package handlers

import (
	"context"
	"net/http"
	"time"

	"schedcore/middleware"
	"schedcore/models"
	"schedcore/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppointmentHandler exposes the booking surface over HTTP.
type AppointmentHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewAppointmentHandler(svc booking.BookingService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{Service: svc, Logger: logger}
}

type createAppointmentRequest struct {
	OrganizerID    string            `json:"organizerId"`
	ParticipantIDs []string          `json:"participantIds"`
	Start          time.Time         `json:"start" binding:"required"`
	End            time.Time         `json:"end" binding:"required"`
	ResourceTZ     string            `json:"resourceTz" binding:"required"`
	UserTZ         string            `json:"userTz"`
	Metadata       map[string]string `json:"metadata"`
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var input createAppointmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Service.Book(c.Request.Context(), middleware.CallerID(c), booking.BookRequest{
		OrganizerID:    input.OrganizerID,
		ParticipantIDs: input.ParticipantIDs,
		Start:          input.Start,
		End:            input.End,
		ResourceTZ:     input.ResourceTZ,
		UserTZ:         input.UserTZ,
		Metadata:       input.Metadata,
	})
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	filter := models.AppointmentFilter{
		Status: models.AppointmentStatus(c.Query("status")),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp", "details": err.Error()})
			return
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp", "details": err.Error()})
			return
		}
		filter.To = t
	}

	appts, err := h.Service.List(c.Request.Context(), middleware.CallerID(c), filter)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	appt, err := h.Service.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

type rescheduleRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var input rescheduleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Service.Reschedule(c.Request.Context(), middleware.CallerID(c), c.Param("id"), input.Start, input.End)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	h.applyTransition(c, h.Service.Confirm)
}

func (h *AppointmentHandler) BeginAppointment(c *gin.Context) {
	h.applyTransition(c, h.Service.Begin)
}

func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	h.applyTransition(c, h.Service.Complete)
}

func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	h.applyTransition(c, h.Service.MarkNoShow)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var input cancelRequest
	_ = c.ShouldBindJSON(&input)

	appt, err := h.Service.Cancel(c.Request.Context(), middleware.CallerID(c), c.Param("id"), input.Reason)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) applyTransition(c *gin.Context, fn func(ctx context.Context, callerID, apptID string) (*models.Appointment, error)) {
	appt, err := fn(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
