package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/config"
	"tutoring-service/internal/conversation"
	"tutoring-service/internal/db"
	"tutoring-service/internal/handlers"
	"tutoring-service/internal/logging"
	"tutoring-service/internal/middleware"
	"tutoring-service/internal/observability"
	"tutoring-service/internal/rabbitmq"
	"tutoring-service/internal/realtime"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/rooms"
	"tutoring-service/internal/telemetry"
	"tutoring-service/internal/video"
	"tutoring-service/internal/ws"
)

const serviceName = "tutoring-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.With("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	messageRepo := repositories.NewMessageRepo(database)
	classRepo := repositories.NewClassRepo(database)
	enrollmentRepo := repositories.NewEnrollmentRepo(database)
	profileRepo := repositories.NewProfileRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)

	broker := realtime.NewBroker()
	listener := realtime.NewPGListener(cfg.DBDSN, db.InsertChannel, broker)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("insert listener stopped")
		}
	}()

	if cfg.DailyAPIKey == "" {
		log.Warn().Msg("DAILY_API_KEY not set, class creation will fail")
	}
	roomClient := rooms.NewDailyClient(rooms.Config{
		APIKey:  cfg.DailyAPIKey,
		BaseURL: cfg.DailyAPIURL,
		Expiry:  cfg.RoomExpiry,
	})

	classService := classes.NewService(classRepo, enrollmentRepo, roomClient)
	access := conversation.NewAccess(sessionRepo, classService)

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, every request will be rejected")
	}
	authenticator := middleware.NewAuthenticator(middleware.NewTokenVerifier(cfg.JWTSecret), profileRepo)

	// One exchange carries audit records and websocket lifecycle events.
	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer auditPublisher.Close()
	log.Info().
		Str("mode", rabbitmq.PublisherMode(auditPublisher)).
		Str("reason", rabbitmq.PublisherNoopReason(auditPublisher)).
		Msg("audit publisher ready")
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	observability.SetPublisher(auditPublisher)

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	messageHandler := handlers.NewMessageHandler(messageRepo, access, audit)
	classHandler := handlers.NewClassHandler(classService, video.NewRegistry(), audit)
	scheduleHandler := handlers.NewScheduleHandler(classService)
	roomHandler := handlers.NewRoomHandler(roomClient, audit)
	conversationWS := ws.NewConversationHandler(authenticator, access, messageRepo, broker, ws.Limits{
		SendRate:  rate.Limit(cfg.WSSendRate),
		SendBurst: cfg.WSSendBurst,
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.GET("/sessions/:session_id/messages", authMiddleware, messageHandler.ListSessionMessages)
	router.POST("/sessions/:session_id/messages", authMiddleware, messageHandler.PostSessionMessage)
	router.GET("/classes/:class_id/messages", authMiddleware, messageHandler.ListClassMessages)
	router.POST("/classes/:class_id/messages", authMiddleware, messageHandler.PostClassMessage)

	router.POST("/classes", authMiddleware, classHandler.CreateClass)
	router.GET("/classes", authMiddleware, classHandler.Browse)
	router.GET("/classes/mine", authMiddleware, classHandler.Mine)
	router.POST("/classes/:class_id/subscribe", authMiddleware, classHandler.Subscribe)
	router.GET("/classes/:class_id/students", authMiddleware, classHandler.Students)
	router.GET("/classes/:class_id/join", authMiddleware, classHandler.Join)
	router.GET("/classes/:class_id/call", authMiddleware, classHandler.CallState)
	router.POST("/classes/:class_id/call/events", authMiddleware, classHandler.CallEvent)

	router.GET("/schedule", authMiddleware, scheduleHandler.Month)
	router.GET("/dashboard/today", authMiddleware, scheduleHandler.Today)
	router.GET("/dashboard/stats", authMiddleware, scheduleHandler.Stats)

	router.POST("/rooms", authMiddleware, roomHandler.CreateRoom)

	// Browsers cannot set headers on upgrade, so these authenticate themselves.
	router.GET("/ws/sessions/:session_id", conversationWS.HandleSession)
	router.GET("/ws/classes/:class_id", conversationWS.HandleClass)

	handlers.RegisterDebugRoutes(router, audit, broker, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
}
