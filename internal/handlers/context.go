package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/dealroom/internal/middleware"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentActor reads the authenticated identity the auth middleware stored on
// the request. The zero Actor means the request was not authenticated.
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:    c.GetString(middleware.CtxUserIDKey),
		Email: c.GetString(middleware.CtxEmailKey),
		Role:  models.SystemRole(c.GetString(middleware.CtxRoleKey)),
	}
}
