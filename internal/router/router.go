package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/parleyhq/parley/internal/handler"
	"github.com/parleyhq/parley/internal/middleware"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Message      *handler.MessageHandler
	Conversation *handler.ConversationHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers) {
	h.Use(middleware.CORS())
	h.Use(middleware.HTTPMetrics())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	// Conversation routes (auth required)
	convGroup := h.Group("/conversation", middleware.JWTAuth())
	{
		convGroup.POST("/start", handlers.Conversation.Start)
		convGroup.GET("/list", handlers.Conversation.List)
		convGroup.GET("/info", handlers.Conversation.Info)
		convGroup.POST("/mark_read", handlers.Conversation.MarkRead)
		convGroup.PUT("/visibility", handlers.Conversation.Visibility)
		convGroup.POST("/restore_history", handlers.Conversation.RestoreHistory)
	}

	// Message routes (auth required)
	msgGroup := h.Group("/msg", middleware.JWTAuth())
	{
		msgGroup.POST("/send", handlers.Message.Send)
		msgGroup.GET("/list", handlers.Message.List)
		msgGroup.GET("/max_seq", handlers.Message.MaxSeq)
	}
}
