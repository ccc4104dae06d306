package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/parleyhq/parley/internal/config"
)

// CORS allows cross-origin requests from the origins configured under
// server.allowed_origins. An empty allow-list keeps the permissive default.
func CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if origin := allowOrigin(string(c.GetHeader("Origin"))); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers")
		c.Header("Access-Control-Allow-Credentials", "true")

		if string(c.Method()) == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next(ctx)
	}
}

func allowOrigin(origin string) string {
	if config.GlobalConfig == nil || len(config.GlobalConfig.Server.AllowedOrigins) == 0 {
		return "*"
	}
	for _, allowed := range config.GlobalConfig.Server.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}
