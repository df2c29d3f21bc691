package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedcore/config"
	"schedcore/cron"
	"schedcore/database"
	appointmentRepo "schedcore/database/repository/appointment"
	availabilityRepo "schedcore/database/repository/availability"
	bookingRepo "schedcore/database/repository/booking"
	eventRepo "schedcore/database/repository/event"
	timeslotRepo "schedcore/database/repository/timeslot"
	"schedcore/handlers"
	"schedcore/routes"
	"schedcore/services/availability"
	"schedcore/services/booking"
	"schedcore/services/dispatch"
	"schedcore/services/identity"
	"schedcore/services/notification"
	"schedcore/services/scheduler"
	"schedcore/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"appointments": appointmentRepo.EnsureIndexes,
		"timeslots":    timeslotRepo.EnsureIndexes,
		"events":       eventRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	ruleRepo := availabilityRepo.NewMongoAvailabilityRuleRepo()
	slotRepo := timeslotRepo.NewMongoTimeSlotRepo()
	bookRepo := bookingRepo.NewMongoBookingRepo()
	evtRepo := eventRepo.NewMongoEventRepo()

	// services.
	cache := utils.GetCacheClient()
	availabilityService := availability.NewService(ruleRepo, slotRepo, cache, config.AppConfig.Slots(), logger)
	schedulerService := scheduler.NewDefaultEventScheduler(evtRepo, logger)

	bookingService := &booking.DefaultBookingService{
		Appointments: apptRepo,
		Bookings:     bookRepo,
		Scheduler:    schedulerService,
		Availability: availabilityService,
		Reminders:    config.AppConfig.Reminders(),
		Logger:       logger,
	}

	resolver := identity.NewJWTResolver(config.AppConfig.JWTSecret)
	deliverer := notification.NewLogDeliverer(logger)

	// Background dispatch worker pool.
	coordinator := dispatch.NewCoordinator(evtRepo, deliverer, cache, config.AppConfig.Dispatch(), logger)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go coordinator.Run(dispatchCtx)

	// Nightly slot regeneration.
	slotCron, err := cron.StartSlotRegeneration(availabilityService, ruleRepo, config.AppConfig.Slots(), logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to schedule slot regeneration: %v", err)
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Appointments: handlers.NewAppointmentHandler(bookingService, logger),
		Availability: handlers.NewAvailabilityHandler(availabilityService, ruleRepo, logger),
		Events:       handlers.NewEventHandler(schedulerService, logger),
		Identity:     resolver,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopDispatch()
	slotCron.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
