package routes

import (
	"time"

	"schedcore/handlers"
	"schedcore/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAppointmentRoutes registers the appointment lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.BearerAuthMiddleware(hb.Identity))
		api.POST("", hb.Appointments.CreateAppointment)
		api.GET("", hb.Appointments.ListAppointments)
		api.GET("/:id", hb.Appointments.GetAppointment)
		api.POST("/:id/confirm", hb.Appointments.ConfirmAppointment)
		api.POST("/:id/start", hb.Appointments.BeginAppointment)
		api.POST("/:id/complete", hb.Appointments.CompleteAppointment)
		api.POST("/:id/no-show", hb.Appointments.MarkNoShow)
		api.POST("/:id/cancel", hb.Appointments.CancelAppointment)
		api.PATCH("/:id", hb.Appointments.RescheduleAppointment)
	}
}

// RegisterAvailabilityRoutes registers rule management, the free-slot read
// path, and on-demand slot generation.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.Use(middleware.BearerAuthMiddleware(hb.Identity))
		api.POST("/rules", hb.Availability.CreateRule)
		api.GET("/:resourceId/slots", hb.Availability.FreeSlots)
		api.POST("/:resourceId/generate", hb.Availability.GenerateSlots)
	}
}

// RegisterEventRoutes registers the generic scheduled-event endpoints.
func RegisterEventRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/events")
	{
		api.Use(middleware.BearerAuthMiddleware(hb.Identity))
		api.POST("", hb.Events.ScheduleEvent)
		api.GET("/upcoming", hb.Events.UpcomingEvents)
		api.GET("/dead-letter", hb.Events.DeadLetterEvents)
		api.DELETE("/:id", hb.Events.CancelEvent)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthCheck)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(300))

	RegisterHealthRoute(r)
	RegisterAppointmentRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterEventRoutes(r, hb)
}
