package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/moderation"
	"messenger-service/internal/observability"
	"messenger-service/internal/presence"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/service"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/uploads"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s reason=%q",
		rabbitmq.PublisherMode(auditPublisher), rabbitmq.PublisherNoopReason(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.messenger", serviceName, cfg.Environment)

	if cfg.AMQPURL != "" {
		eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(eventsPublisher)
			defer eventsPublisher.Close()
		}
	}

	conversations := repositories.NewConversationRepo(database)
	messages := repositories.NewMessageRepo(database)
	reactions := repositories.NewReactionRepo(database)
	blocks := repositories.NewBlockRepo(database)
	users := repositories.NewUserRepo(database)

	registry := presence.NewRegistry()
	eventRouter := ws.NewRouter(registry)
	guard := moderation.NewGuard(blocks, eventRouter)
	store := uploads.NewDiskStore(cfg.UploadDir)

	svc := service.NewConversationService(
		conversations, messages, reactions, blocks, users,
		guard, eventRouter, registry, store,
	)

	conversationHandler := handlers.NewConversationHandler(svc, audit)
	userHandler := handlers.NewUserHandler(users, guard, audit)
	uploadHandler := handlers.NewUploadHandler(store)
	session := ws.NewSessionHandler(registry, eventRouter, cfg.JWTSecret)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(observability.HTTPMetricsMiddleware())

	r.GET("/health", handlers.Health(database))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", session.Handle)
	r.GET("/uploads/:chat_id/:filename", uploadHandler.Serve)

	api := r.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.GET("/chats", conversationHandler.ListChats)
		api.POST("/chats", conversationHandler.CreateChat)
		api.POST("/chats/groups", conversationHandler.CreateGroup)
		api.GET("/chats/:chat_id/messages", conversationHandler.GetMessages)
		api.POST("/chats/:chat_id/messages", conversationHandler.SendMessage)
		api.DELETE("/chats/:chat_id/messages/:message_id", conversationHandler.DeleteMessage)
		api.POST("/chats/:chat_id/messages/:message_id/reactions", conversationHandler.ToggleReaction)
		api.POST("/chats/:chat_id/read", conversationHandler.MarkRead)
		api.POST("/chats/:chat_id/leave", conversationHandler.LeaveGroup)
		api.POST("/chats/:chat_id/members", conversationHandler.AddMembers)
		api.DELETE("/chats/:chat_id/members/:user_id", conversationHandler.KickMember)
		api.DELETE("/chats/:chat_id", conversationHandler.DissolveGroup)

		api.GET("/users/search", userHandler.Search)
		api.POST("/users/:user_id/block", userHandler.Block)
		api.DELETE("/users/:user_id/block", userHandler.Unblock)
	}

	log.Printf("messenger service listening on :%s env=%s", cfg.Port, cfg.Environment)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
