package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/anjiri1684/field_booking/jobs"
	"github.com/anjiri1684/field_booking/notifications"
	"github.com/anjiri1684/field_booking/obs"
	"github.com/anjiri1684/field_booking/routes"
	"github.com/anjiri1684/field_booking/services"
	"github.com/anjiri1684/field_booking/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const serviceName = "field-booking-api"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}
	if cfg.Env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatalf("🔥 Unknown APP_TIMEZONE %q: %v", cfg.TimeZone, err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("close database")
		}
	}()
	log.Info("✅ Database connection successfully opened")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	if err := database.SeedPaymentMethods(db); err != nil {
		log.Fatalf("🔥 Failed to seed payment methods: %v", err)
	}
	if err := database.SeedSuperAdmin(db, cfg, log); err != nil {
		log.Fatalf("🔥 Failed to seed super admin: %v", err)
	}

	shutdownTracer, err := obs.InitTracer(serviceName, cfg.OtelEndpoint, cfg.Env)
	if err != nil {
		log.Fatalf("🔥 Failed to start tracing: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Fatalf("🔥 Failed to connect to RabbitMQ: %v", err)
		}
		publisher = amqpPub
		log.WithField("exchange", cfg.EventsExchange).Info("✅ Publishing domain events")
	}

	hub := websocket.NewHub(log)
	svc := services.New(services.Deps{
		DB:     db,
		Log:    log,
		Config: cfg,
		Events: publisher,
		Mailer: notifications.NewMailer(cfg, log),
		Pusher: hub,
	})

	scheduler := cron.New(cron.WithLocation(loc))
	if err := jobs.NewRunner(svc, log, loc).Schedule(scheduler); err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	log.Info("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Field Booking",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(log),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.TimeZone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "message": "Welcome to Field Booking API"})
	})
	routes.Setup(app, handlers.New(svc, cfg, log), hub, cfg.JWTSecret)

	go func() {
		log.Infof("✅ Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("🔥 Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	<-scheduler.Stop().Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := publisher.Close(); err != nil {
		log.WithError(err).Warn("close event publisher")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(ctx); err != nil {
		log.WithError(err).Warn("flush traces")
	}
}
