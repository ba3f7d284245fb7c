package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"hushgram-service/internal/cleanup"
	"hushgram-service/internal/db"
	"hushgram-service/internal/handlers"
	"hushgram-service/internal/middleware"
	"hushgram-service/internal/observability"
	"hushgram-service/internal/presence"
	"hushgram-service/internal/rabbitmq"
	"hushgram-service/internal/repositories"
	"hushgram-service/internal/tasks"
	"hushgram-service/internal/telemetry"
	"hushgram-service/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	// The display window and the idle-deletion threshold are separate knobs
	// on purpose.
	onlineWindow := getDurationEnv("ONLINE_WINDOW", 60*time.Second)
	idleThreshold := getDurationEnv("IDLE_THRESHOLD", 5*time.Minute)
	sweepInterval := getDurationEnv("SWEEP_INTERVAL", time.Minute)

	shutdownTracing, err := observability.SetupTracing(ctx, "hushgram-service", getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	amqpURL := getEnv("AMQP_URL", "")
	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AUDIT_EXCHANGE", "hushgram.audit"))
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit_log.hushgram", "hushgram-service", getEnv("ENVIRONMENT", "dev"))

	if eventsPublisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("EVENTS_EXCHANGE", "hushgram.events")); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	userRepo := repositories.NewUserRepo(database, onlineWindow)
	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	stateRepo := repositories.NewSessionStateRepo(database)

	workflow := cleanup.NewWorkflow(userRepo, messageRepo, groupRepo, stateRepo)

	var queue tasks.Queue
	if amqpURL != "" {
		amqpQueue, err := tasks.NewAMQPQueue(amqpURL, getEnv("TASKS_EXCHANGE", "hushgram.tasks"), getEnv("TASKS_QUEUE", "hushgram.cleanup"))
		if err != nil {
			log.Printf("amqp task queue unavailable, using in-process worker: %v", err)
		} else {
			defer amqpQueue.Close()
			go func() {
				if err := amqpQueue.Consume(ctx, workflow.DeleteUserAndData); err != nil && ctx.Err() == nil {
					log.Printf("task consumer stopped: %v", err)
				}
			}()
			queue = amqpQueue
		}
	}
	if queue == nil {
		inproc := tasks.NewInProcessQueue(64, workflow.DeleteUserAndData)
		inproc.Start(ctx)
		queue = inproc
	}

	sweeper := presence.NewSweeper(userRepo, queue, sweepInterval, idleThreshold)
	go sweeper.Run(ctx)

	hub := ws.NewHub()

	userHandler := handlers.NewUserHandler(userRepo, queue, audit)
	chatHandler := handlers.NewChatHandler(userRepo, messageRepo, stateRepo, hub)
	groupHandler := handlers.NewGroupHandler(groupRepo, messageRepo, userRepo, hub, audit)
	chatWS := ws.NewChatWebSocketHandler(hub, userRepo)
	groupWS := ws.NewGroupWebSocketHandler(hub, groupRepo, userRepo)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("hushgram-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionMW := middleware.SessionMiddleware(userRepo)

	router.POST("/users", userHandler.CreateOrResume)
	router.GET("/users/me", userHandler.GetCurrentUser)
	router.GET("/users/online", userHandler.ListOnlineUsers)
	router.POST("/users/me/status", sessionMW, userHandler.SetOnlineStatus)
	router.POST("/users/me/logout", sessionMW, userHandler.Logout)

	router.POST("/messages", sessionMW, chatHandler.SendMessage)
	router.GET("/conversations/:user_id", sessionMW, chatHandler.GetConversation)
	router.POST("/messages/:message_id/seen", sessionMW, chatHandler.MarkSeen)
	router.POST("/chats/active", sessionMW, chatHandler.SetActiveChat)
	router.POST("/typing", sessionMW, chatHandler.SetTyping)

	router.POST("/groups", sessionMW, groupHandler.CreateGroup)
	router.POST("/groups/:group_id/join", sessionMW, groupHandler.JoinGroup)
	router.POST("/groups/:group_id/leave", sessionMW, groupHandler.LeaveGroup)
	router.GET("/groups/:group_id/members", sessionMW, groupHandler.ListMembers)
	router.GET("/groups/:group_id/messages", sessionMW, groupHandler.GetGroupMessages)
	router.POST("/groups/:group_id/messages", sessionMW, groupHandler.PostGroupMessage)

	router.GET("/ws/chats/:user_id", chatWS.Handle)
	router.GET("/ws/groups/:group_id", groupWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, groupRepo, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("invalid duration for %s, using %s", key, fallback)
	}
	return fallback
}
