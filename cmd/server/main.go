package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/handler"
	"github.com/parleyhq/parley/internal/ownership"
	"github.com/parleyhq/parley/internal/repository"
	"github.com/parleyhq/parley/internal/router"
	"github.com/parleyhq/parley/internal/service"
	"github.com/parleyhq/parley/pkg/constant"
)

// logNotifier is the default out-of-band sink for new-message events. Real
// deployments replace it with a push gateway via SetNotifier.
type logNotifier struct{}

func (logNotifier) NotifyNewMessage(msg *entity.Message, recipientSubjectId string) {
	log.CtxDebug(context.Background(), "new message %s in %s for %s", msg.Id, msg.ConversationId, recipientSubjectId)
}

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	// Check database connection
	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Ownership authorizer for org-authored messages
	var authorizer ownership.Authorizer
	if cfg.Ownership.AllowAll || cfg.Ownership.BaseURL == "" {
		log.CtxWarn(ctx, "ownership checks disabled, allowing all org authorship")
		authorizer = ownership.AllowAll{}
	} else {
		authorizer, err = ownership.NewHTTPClient(cfg.Ownership.BaseURL)
		if err != nil {
			log.CtxError(ctx, "failed to create ownership client: %v", err)
			panic(err)
		}
	}

	// Initialize services
	msgService := service.NewMessagingService(repos.Actor, repos.Conversation, repos.Membership, repos.Message, authorizer)
	msgService.SetNotifier(logNotifier{})
	convService := service.NewConversationService(repos.Actor, repos.Conversation, repos.Membership, repos.Message, authorizer)

	// Initialize handlers
	handlers := &router.Handlers{
		Message:      handler.NewMessageHandler(msgService),
		Conversation: handler.NewConversationHandler(convService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers)

	// Prometheus exposition on its own listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		log.CtxInfo(ctx, "metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.CtxError(ctx, "metrics server error: %v", err)
		}
	}()

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
