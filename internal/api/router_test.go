package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/app"
	iauth "github.com/dealbridge/dealroom/internal/auth"
	"github.com/dealbridge/dealroom/internal/cache"
	"github.com/dealbridge/dealroom/internal/database"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/realtime"
	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/internal/storage"
	"github.com/dealbridge/dealroom/pkg/crypto"
)

type routerEnv struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *iauth.JWTService
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateAndSeed(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	jwt, err := iauth.NewJWTService("router-test-secret", time.Hour)
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	notifications, err := services.NewNotificationService(db, nil, nil)
	require.NoError(t, err)
	ndas, err := services.NewNDAService(db, audit, notifications)
	require.NoError(t, err)
	readinessSvc, err := services.NewReadinessService(db, cache.NewMemoryStore())
	require.NoError(t, err)
	presigner, err := storage.NewHMACPresigner("https://files.test.example", "router-secret", 15*time.Minute)
	require.NoError(t, err)
	documents, err := services.NewDocumentService(db, audit, ndas, readinessSvc, presigner)
	require.NoError(t, err)
	rooms, err := services.NewRoomService(db, audit)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = false

	router, err := NewRouter(db, jwt, cfg, Services{
		NDAs:          ndas,
		Documents:     documents,
		Rooms:         rooms,
		Readiness:     readinessSvc,
		Audit:         audit,
		Notifications: notifications,
	}, realtime.NewHub())
	require.NoError(t, err)

	return &routerEnv{router: router, db: db, jwt: jwt}
}

func (e *routerEnv) createUser(t *testing.T, email string, role models.SystemRole) (*models.User, string) {
	t.Helper()

	hashed, err := crypto.HashPassword("correct horse battery")
	require.NoError(t, err)
	user := models.User{Email: email, Name: email, Password: hashed, Role: role}
	require.NoError(t, e.db.Create(&user).Error)

	token, err := e.jwt.Issue(&user)
	require.NoError(t, err)
	return &user, token
}

func (e *routerEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouterRequiresAuth(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/api/ndas", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/ndas", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterLoginAndMe(t *testing.T) {
	env := newRouterEnv(t)
	env.createUser(t, "seller@example.com", models.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "seller@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)

	rec = env.do(t, http.MethodGet, "/api/auth/me", body.Data.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "seller@example.com")

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "seller@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterNDAFlow(t *testing.T) {
	env := newRouterEnv(t)
	seller, sellerToken := env.createUser(t, "seller@example.com", models.RoleUser)
	_, buyerToken := env.createUser(t, "buyer@example.com", models.RoleUser)

	listing := models.Listing{OwnerID: seller.ID, Title: "Bakery AB"}
	require.NoError(t, env.db.Create(&listing).Error)

	// Buyer opens an NDA request.
	rec := env.do(t, http.MethodPost, "/api/ndas", buyerToken, gin.H{"listing_id": listing.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.NDARequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, models.NDAPending, created.Data.Status)

	// The buyer cannot approve their own request.
	transitionPath := fmt.Sprintf("/api/ndas/%s/transition", created.Data.ID)
	rec = env.do(t, http.MethodPost, transitionPath, buyerToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The seller approves, then a second approve conflicts.
	rec = env.do(t, http.MethodPost, transitionPath, sellerToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, transitionPath, sellerToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// The buyer signs.
	rec = env.do(t, http.MethodPost, transitionPath, buyerToken, gin.H{"status": "signed"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterDocumentAccessFlow(t *testing.T) {
	env := newRouterEnv(t)
	seller, sellerToken := env.createUser(t, "seller@example.com", models.RoleUser)
	_, buyerToken := env.createUser(t, "buyer@example.com", models.RoleUser)

	listing := models.Listing{OwnerID: seller.ID, Title: "Bakery AB"}
	require.NoError(t, env.db.Create(&listing).Error)

	// Seller opens the room and registers a document.
	rec := env.do(t, http.MethodPost, "/api/rooms", sellerToken, gin.H{"listing_id": listing.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var room struct {
		Data models.DataRoom `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))

	rec = env.do(t, http.MethodPost, "/api/documents", sellerToken, gin.H{
		"data_room_id": room.Data.ID,
		"title":        "Skattekontoutdrag",
		"file_name":    "skattekonto.pdf",
		"mime_type":    "application/pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered struct {
		Data struct {
			Document models.Document `json:"document"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	docID := registered.Data.Document.ID

	// Open it up to everyone, then the buyer can view.
	rec = env.do(t, http.MethodPut, "/api/documents/"+docID+"/policy", sellerToken, gin.H{
		"visibility": "ALL",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/documents/"+docID+"/access?action=view", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"can_view":true`)

	// Readiness and audit are owner-facing.
	rec = env.do(t, http.MethodGet, "/api/rooms/"+room.Data.ID+"/readiness", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/rooms/"+room.Data.ID+"/audit", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/rooms/"+room.Data.ID+"/audit", buyerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
