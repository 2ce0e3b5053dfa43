package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/catalog"
	"github.com/dealbridge/dealroom/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.DataRoom{},
		&models.DataRoomMembership{},
		&models.Document{},
		&models.Requirement{},
		&models.NDARequest{},
		&models.TransactionRecord{},
		&models.Message{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// SeedRequirementCatalog upserts the canonical due-diligence checklist.
// Runtime code treats the rows as read-only reference data.
func SeedRequirementCatalog(db *gorm.DB) error {
	for _, item := range catalog.All() {
		docTypes, err := json.Marshal(item.DocTypes)
		if err != nil {
			return fmt.Errorf("marshal doc types for %s: %w", item.ID, err)
		}

		row := models.Requirement{
			ID:                item.ID,
			Category:          item.Category,
			Title:             item.Title,
			Description:       item.Description,
			Mandatory:         item.Mandatory,
			DocTypes:          datatypes.JSON(docTypes),
			RequiresSignature: item.RequiresSignature,
			CatalogVersion:    catalog.Version,
		}
		if item.MinYears > 0 {
			years := item.MinYears
			row.MinYears = &years
		}

		if err := db.Save(&row).Error; err != nil {
			return fmt.Errorf("seed requirement %s: %w", item.ID, err)
		}
	}
	return nil
}
