package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/app"
	iauth "github.com/dealbridge/dealroom/internal/auth"
	"github.com/dealbridge/dealroom/internal/handlers"
	"github.com/dealbridge/dealroom/internal/middleware"
	"github.com/dealbridge/dealroom/internal/realtime"
	"github.com/dealbridge/dealroom/internal/services"
)

// Services bundles the wired service layer the router mounts.
type Services struct {
	NDAs          *services.NDAService
	Documents     *services.DocumentService
	Rooms         *services.RoomService
	Readiness     *services.ReadinessService
	Audit         *services.AuditService
	Notifications *services.NotificationService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svcs Services, hub *realtime.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs.NDAs == nil || svcs.Documents == nil || svcs.Rooms == nil ||
		svcs.Readiness == nil || svcs.Audit == nil || svcs.Notifications == nil {
		return nil, fmt.Errorf("all services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Realtime stream carries its own token validation; websocket dials
	// cannot always set headers.
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)
	r.GET("/api/ws", realtimeHandler.Stream)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	// NDA lifecycle
	ndaHandler := handlers.NewNDAHandler(svcs.NDAs)
	ndas := api.Group("/ndas")
	{
		ndas.POST("", ndaHandler.Create)
		ndas.GET("", ndaHandler.List)
		ndas.GET("/:id", ndaHandler.Get)
		ndas.POST("/:id/transition", ndaHandler.Transition)
		ndas.DELETE("/:id", ndaHandler.Delete)
	}

	// Data rooms
	roomHandler := handlers.NewRoomHandler(svcs.Rooms)
	documentHandler := handlers.NewDocumentHandler(svcs.Documents)
	readinessHandler := handlers.NewReadinessHandler(svcs.Readiness, svcs.Rooms)
	auditHandler := handlers.NewAuditHandler(svcs.Audit)
	rooms := api.Group("/rooms")
	{
		rooms.POST("", roomHandler.Create)
		rooms.GET("/:id/members", roomHandler.ListMembers)
		rooms.POST("/:id/members", roomHandler.AddMember)
		rooms.DELETE("/:id/members/:userID", roomHandler.RemoveMember)
		rooms.GET("/:id/documents", documentHandler.ListForRoom)
		rooms.GET("/:id/readiness", readinessHandler.Get)
		rooms.POST("/:id/readiness/refresh", readinessHandler.Refresh)
		rooms.GET("/:id/audit", auditHandler.List)
	}

	// Documents
	documents := api.Group("/documents")
	{
		documents.POST("", documentHandler.RegisterUpload)
		documents.PUT("/:id/policy", documentHandler.SetPolicy)
		documents.GET("/:id/access", documentHandler.Access)
		documents.DELETE("/:id", documentHandler.Delete)
	}

	// Notifications
	notificationHandler := handlers.NewNotificationHandler(svcs.Notifications)
	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	return r, nil
}
