package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"dataroom-chatbot/internal/ai"
	appsvc "dataroom-chatbot/internal/app"
	"dataroom-chatbot/internal/bootstrap"
	"dataroom-chatbot/internal/cache"
	"dataroom-chatbot/internal/index"
	rabbitmqClient "dataroom-chatbot/internal/platform/rabbitmq"
	"dataroom-chatbot/internal/repository"
	"dataroom-chatbot/internal/transport/http/handler"
	"dataroom-chatbot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	llmClient := ai.NewOpenAICompatibleClient()
	chatCfg := ai.ChatConfig{
		BaseURL:     app.Config.LLM.BaseURL,
		APIKey:      app.Config.LLM.APIKey,
		Model:       app.Config.LLM.ChatModel,
		MaxTokens:   app.Config.LLM.MaxAnswerTokens,
		Temperature: app.Config.LLM.Temperature,
	}
	embCfg := ai.EmbeddingConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.EmbeddingModel,
	}
	chunker := index.NewChunker(app.Config.Index.ChunkSize, app.Config.Index.ChunkOverlap)

	dataroomService := appsvc.NewDataroomService(
		app.IndexManager,
		chunker,
		app.DriveSource,
		docRepo,
		llmClient,
		chatCfg,
		llmClient,
		embCfg,
		app.Config.Index,
	)

	publisher := rabbitmqClient.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	chatService := appsvc.NewChatService(sessionRepo, messageRepo, publisher, historyCache, dataroomService)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	dataroomHandler := handler.NewDataroomHandler(dataroomService, docRepo)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(authJWT)
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.POST("/messages", chatHandler.Ask)
	chatGroup.GET("/history", chatHandler.GetHistory)

	dataroomGroup := v1.Group("/dataroom")
	dataroomGroup.Use(authJWT)
	dataroomGroup.POST("/update", dataroomHandler.Update)
	dataroomGroup.GET("/status", dataroomHandler.Status)
	dataroomGroup.GET("/documents", dataroomHandler.ListDocuments)

	return router
}
