package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/database"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/services"
)

func openMaintenanceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateAndSeed(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRunOnceEnforcesAuditRetention(t *testing.T) {
	db := openMaintenanceDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{Action: "document.view", TargetType: "document", TargetID: "d", Result: "allow"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&old).Update("created_at", time.Now().UTC().AddDate(0, 0, -40)).Error)

	recent := models.AuditLog{Action: "document.view", TargetType: "document", TargetID: "d", Result: "allow"}
	require.NoError(t, db.Create(&recent).Error)

	cleaner := NewCleaner(audit, nil, nil, WithAuditRetentionDays(30))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRunOnceWarnsExpiringNDAs(t *testing.T) {
	db := openMaintenanceDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	notifications, err := services.NewNotificationService(db, nil, nil)
	require.NoError(t, err)
	ndas, err := services.NewNDAService(db, audit, notifications)
	require.NoError(t, err)

	seller := models.User{Email: "seller@example.com", Name: "seller", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&seller).Error)
	buyer := models.User{Email: "buyer@example.com", Name: "buyer", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&buyer).Error)
	listing := models.Listing{OwnerID: seller.ID, Title: "Bakery AB"}
	require.NoError(t, db.Create(&listing).Error)

	request := models.NDARequest{
		ListingID: listing.ID,
		BuyerID:   buyer.ID,
		SellerID:  seller.ID,
		Status:    models.NDAApproved,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, 3),
	}
	require.NoError(t, db.Create(&request).Error)

	cleaner := NewCleaner(audit, ndas, notifications, WithExpiryWarningDays(7))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", buyer.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "nda.expiring", rows[0].Type)

	// An NDA expiring far in the future stays quiet.
	far := models.NDARequest{
		ListingID: listing.ID,
		BuyerID:   seller.ID, // distinct buyer slot to dodge the active-key constraint
		SellerID:  buyer.ID,
		Status:    models.NDAApproved,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, 60),
	}
	require.NoError(t, db.Create(&far).Error)

	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.NoError(t, db.Where("user_id = ?", seller.ID).Find(&rows).Error)
	require.Empty(t, rows)
}

func TestCleanerStartStop(t *testing.T) {
	db := openMaintenanceDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(audit, nil, nil)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
