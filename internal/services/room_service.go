package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/models"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
)

// AddMemberInput grants a user a role inside a data room.
type AddMemberInput struct {
	UserID string          `json:"user_id" binding:"required"`
	Role   models.RoomRole `json:"role" binding:"required"`
}

// RoomService manages data rooms and their memberships.
type RoomService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewRoomService constructs the data room service.
func NewRoomService(db *gorm.DB, audit *AuditService) (*RoomService, error) {
	if db == nil {
		return nil, errors.New("room service: db is required")
	}
	if audit == nil {
		return nil, errors.New("room service: audit recorder is required")
	}
	return &RoomService{db: db, audit: audit}, nil
}

// CreateForListing opens the data room for a listing and enrolls the listing
// owner as room OWNER. Each listing has exactly one room.
func (s *RoomService) CreateForListing(ctx context.Context, actor Actor, listingID, name string) (*models.DataRoom, error) {
	ctx = ensureContext(ctx)

	listing, err := listingOwner(ctx, s.db, strings.TrimSpace(listingID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("room service: load listing: %w", err)
	}

	if listing.OwnerID != actor.ID && !actor.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	room := models.DataRoom{
		ListingID: listing.ID,
		Name:      strings.TrimSpace(defaultIfEmpty(name, listing.Title)),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		membership := models.DataRoomMembership{
			DataRoomID: room.ID,
			UserID:     listing.OwnerID,
			Role:       models.RoomOwner,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("a data room already exists for this listing")
		}
		return nil, fmt.Errorf("room service: create room: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "room.create",
		TargetType: "data_room",
		TargetID:   room.ID,
		DataRoomID: room.ID,
		Result:     "success",
		Meta:       map[string]any{"listing_id": listing.ID},
	})
	return &room, nil
}

// AddMember grants a room role. Only the room OWNER (or privileged roles) may
// manage membership.
func (s *RoomService) AddMember(ctx context.Context, actor Actor, roomID string, input AddMemberInput) (*models.DataRoomMembership, error) {
	ctx = ensureContext(ctx)

	if !input.Role.Valid() {
		return nil, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown room role %q", input.Role))
	}

	if err := s.requireOwner(ctx, actor, roomID); err != nil {
		return nil, err
	}

	membership := models.DataRoomMembership{
		DataRoomID: strings.TrimSpace(roomID),
		UserID:     strings.TrimSpace(input.UserID),
		Role:       input.Role,
	}
	if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("the user is already a member of this room")
		}
		return nil, fmt.Errorf("room service: add member: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "room.member_add",
		TargetType: "data_room",
		TargetID:   roomID,
		DataRoomID: roomID,
		Result:     "success",
		Meta:       map[string]any{"user_id": input.UserID, "role": string(input.Role)},
	})
	return &membership, nil
}

// RemoveMember revokes a user's room membership.
func (s *RoomService) RemoveMember(ctx context.Context, actor Actor, roomID, userID string) error {
	ctx = ensureContext(ctx)

	if err := s.requireOwner(ctx, actor, roomID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("data_room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.DataRoomMembership{})
	if res.Error != nil {
		return fmt.Errorf("room service: remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "room.member_remove",
		TargetType: "data_room",
		TargetID:   roomID,
		DataRoomID: roomID,
		Result:     "success",
		Meta:       map[string]any{"user_id": userID},
	})
	return nil
}

// ListMembers returns a room's memberships; any member may look.
func (s *RoomService) ListMembers(ctx context.Context, actor Actor, roomID string) ([]models.DataRoomMembership, error) {
	ctx = ensureContext(ctx)

	role, err := roomRoleFor(ctx, s.db, roomID, actor)
	if err != nil {
		return nil, fmt.Errorf("room service: %w", err)
	}
	if role == "" {
		return nil, apperrors.ErrForbidden
	}

	var rows []models.DataRoomMembership
	if err := s.db.WithContext(ctx).
		Where("data_room_id = ?", roomID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("room service: list members: %w", err)
	}
	return rows, nil
}

func (s *RoomService) requireOwner(ctx context.Context, actor Actor, roomID string) error {
	role, err := roomRoleFor(ctx, s.db, roomID, actor)
	if err != nil {
		return fmt.Errorf("room service: %w", err)
	}
	if role != models.RoomOwner {
		return apperrors.ErrForbidden
	}
	return nil
}
