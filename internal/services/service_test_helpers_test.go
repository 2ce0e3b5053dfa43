package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/cache"
	"github.com/dealbridge/dealroom/internal/database"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/storage"
	"github.com/dealbridge/dealroom/pkg/crypto"
)

type testEnv struct {
	db            *gorm.DB
	audit         *AuditService
	notifications *NotificationService
	ndas          *NDAService
	readiness     *ReadinessService
	documents     *DocumentService
	rooms         *RoomService
	store         *cache.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateAndSeed(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	notifications, err := NewNotificationService(db, nil, nil)
	require.NoError(t, err)

	ndas, err := NewNDAService(db, audit, notifications)
	require.NoError(t, err)

	store := cache.NewMemoryStore()
	readinessSvc, err := NewReadinessService(db, store)
	require.NoError(t, err)

	presigner, err := storage.NewHMACPresigner("https://files.test.example", "test-secret", 15*time.Minute)
	require.NoError(t, err)

	documents, err := NewDocumentService(db, audit, ndas, readinessSvc, presigner)
	require.NoError(t, err)

	rooms, err := NewRoomService(db, audit)
	require.NoError(t, err)

	return &testEnv{
		db:            db,
		audit:         audit,
		notifications: notifications,
		ndas:          ndas,
		readiness:     readinessSvc,
		documents:     documents,
		rooms:         rooms,
		store:         store,
	}
}

func (e *testEnv) createUser(t *testing.T, email string, role models.SystemRole) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("correct horse battery")
	require.NoError(t, err)

	user := models.User{Email: email, Name: email, Password: hashed, Role: role}
	require.NoError(t, e.db.Create(&user).Error)
	return &user
}

func (e *testEnv) createListing(t *testing.T, owner *models.User, title string) *models.Listing {
	t.Helper()

	listing := models.Listing{OwnerID: owner.ID, Title: title}
	require.NoError(t, e.db.Create(&listing).Error)
	return &listing
}

// createRoom creates the listing's data room with the owner enrolled.
func (e *testEnv) createRoom(t *testing.T, owner *models.User, listing *models.Listing) *models.DataRoom {
	t.Helper()

	room, err := e.rooms.CreateForListing(context.Background(), actorFor(owner), listing.ID, listing.Title)
	require.NoError(t, err)
	return room
}

func actorFor(user *models.User) Actor {
	return Actor{ID: user.ID, Email: user.Email, Role: user.Role}
}
