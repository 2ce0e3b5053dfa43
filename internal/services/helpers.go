package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/models"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Actor is the verified caller identity handed down from the auth middleware.
type Actor struct {
	ID    string
	Email string
	Role  models.SystemRole
}

// Privileged reports whether the actor bypasses participant scoping.
func (a Actor) Privileged() bool {
	return a.Role.Privileged()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// listingOwner resolves the owner of a listing, mapping absence to NotFound
// at the caller.
func listingOwner(ctx context.Context, db *gorm.DB, listingID string) (*models.Listing, error) {
	var listing models.Listing
	if err := db.WithContext(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// roomRoleFor returns the viewer's effective role inside the data room.
// Privileged platform roles act as room owners everywhere; everyone else
// gets their membership role or none.
func roomRoleFor(ctx context.Context, db *gorm.DB, roomID string, actor Actor) (models.RoomRole, error) {
	if actor.Privileged() {
		return models.RoomOwner, nil
	}

	var membership models.DataRoomMembership
	err := db.WithContext(ctx).
		Where("data_room_id = ? AND user_id = ?", roomID, actor.ID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load room membership: %w", err)
	}
	return membership.Role, nil
}
