package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/pkg/errcode"
	"github.com/parleyhq/parley/pkg/jwt"
	"github.com/parleyhq/parley/pkg/response"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer token
	BearerPrefix = "Bearer "
	// SubjectIdKey is the context key for the authenticated subject Id
	SubjectIdKey = "subject_id"
)

// JWTAuth is the JWT authentication middleware. Every messaging route sits
// behind it; an absent or unverifiable identity never reaches a handler.
func JWTAuth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		authHeader := string(c.GetHeader(AuthorizationHeader))
		if authHeader == "" {
			response.ErrorWithCode(ctx, c, errcode.ErrTokenMissing)
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.ErrorWithCode(ctx, c, errcode.ErrTokenInvalid)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwt.ParseToken(tokenString, config.GlobalConfig.JWT.Secret)
		if err != nil {
			if errcode.ErrTokenExpired.Is(err) {
				response.ErrorWithCode(ctx, c, errcode.ErrTokenExpired)
			} else {
				response.ErrorWithCode(ctx, c, errcode.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		c.Set(SubjectIdKey, claims.SubjectId)

		c.Next(ctx)
	}
}

// GetSubjectId gets the authenticated subject Id from context
func GetSubjectId(c *app.RequestContext) string {
	if v, ok := c.Get(SubjectIdKey); ok {
		return v.(string)
	}
	return ""
}
