package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/config"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/handlers"
	"github.com/kerrdetailing/booking-backend/internal/middleware"
	"github.com/kerrdetailing/booking-backend/internal/services"
	"github.com/kerrdetailing/booking-backend/pkg/jwt"
	"github.com/kerrdetailing/booking-backend/pkg/sms"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Kerr Detailing Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize SMS gateway
	var smsGateway sms.Gateway
	if cfg.SMS.Mode == "production" {
		logger.Info("Initializing Twilio SMS gateway in production mode...")
		smsGateway = sms.NewTwilioGateway(sms.TwilioConfig{
			BaseURL:    cfg.SMS.APIBaseURL,
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.FromNumber,
		})
	} else {
		logger.Info("SMS gateway in development mode (messages are recorded, not sent)")
		smsGateway = sms.NewDevGateway()
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	bookingRepository := database.NewBookingRepository(db)
	availabilityService := services.NewAvailabilityService(bookingRepository, logger)
	paymentService := services.NewStripeService(cfg.Payment, logger)
	wizardService := services.NewWizardService(availabilityService, bookingRepository, paymentService, logger)
	reminderService := services.NewReminderService(bookingRepository, smsGateway, cfg.Reminder, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(reminderService, wizardService, cfg.Reminder)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("✓ Cron service started - Reminder dispatch enabled")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(availabilityService, wizardService, bookingRepository, logger)
	reminderHandler := handlers.NewReminderHandler(reminderService, cfg.SMS.DefaultTest, logger)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	{
		// Public catalog and availability
		api.GET("/slots", bookingHandler.GetSlots)
		api.GET("/catalog", bookingHandler.GetCatalog)

		// Booking wizard (customer auth required)
		authed := api.Group("", middleware.AuthMiddleware(jwtService))
		{
			authed.POST("/bookings/wizard", bookingHandler.StartWizard)
			authed.GET("/bookings/wizard/:id", bookingHandler.GetWizard)
			authed.PUT("/bookings/wizard/:id/contact", bookingHandler.SubmitContact)
			authed.PUT("/bookings/wizard/:id/vehicle", bookingHandler.SubmitVehicle)
			authed.PUT("/bookings/wizard/:id/service", bookingHandler.SelectService)
			authed.POST("/bookings/wizard/:id/next", bookingHandler.Next)
			authed.POST("/bookings/wizard/:id/back", bookingHandler.Back)
			authed.POST("/bookings/wizard/:id/pay", bookingHandler.Pay)
			authed.DELETE("/bookings/wizard/:id", bookingHandler.CancelWizard)

			authed.GET("/bookings", bookingHandler.ListBookings)
			authed.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		}

		// Reminder dispatch (cron secret, for external schedulers)
		cronGuard := api.Group("", middleware.CronAuthMiddleware(cfg.Reminder.CronSecret))
		{
			cronGuard.POST("/reminders/check", reminderHandler.CheckReminders)
			cronGuard.POST("/reminders/test", reminderHandler.TestReminders)
			cronGuard.POST("/reminders/send", reminderHandler.SendReminder)
			cronGuard.POST("/sms/test", reminderHandler.TestSMS)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger logs every request with latency and status
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
