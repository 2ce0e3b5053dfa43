package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/models"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
	"github.com/dealbridge/dealroom/pkg/logger"
	"github.com/dealbridge/dealroom/pkg/metrics"
)

// ndaValidity is the advisory lifetime stamped on new requests. Expiry never
// transitions state by itself; it is evaluated at access-check time.
const ndaValidity = 30 * 24 * time.Hour

// CreateNDAInput carries the buyer's request to open an NDA.
type CreateNDAInput struct {
	ListingID string `json:"listing_id" binding:"required"`
	Message   string `json:"message"`
}

// NDAListFilters scopes NDA queries.
type NDAListFilters struct {
	ListingID string
	Status    models.NDAStatus
}

// NDAService owns the NDA request state machine between buyers and listings.
type NDAService struct {
	db            *gorm.DB
	audit         *AuditService
	notifications *NotificationService
	log           *zap.Logger
	now           func() time.Time
}

// NewNDAService constructs the NDA lifecycle manager.
func NewNDAService(db *gorm.DB, audit *AuditService, notifications *NotificationService) (*NDAService, error) {
	if db == nil {
		return nil, errors.New("nda service: db is required")
	}
	if audit == nil {
		return nil, errors.New("nda service: audit recorder is required")
	}
	if notifications == nil {
		return nil, errors.New("nda service: notification service is required")
	}
	return &NDAService{
		db:            db,
		audit:         audit,
		notifications: notifications,
		log:           logger.WithModule("nda"),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create opens a new NDA request for the acting buyer. The seller is derived
// from listing ownership, never supplied by the caller. The one-active-request
// invariant is enforced by the active-key uniqueness constraint, so two
// concurrent creates cannot both succeed.
func (s *NDAService) Create(ctx context.Context, actor Actor, input CreateNDAInput) (*models.NDARequest, error) {
	ctx = ensureContext(ctx)

	listingID := strings.TrimSpace(input.ListingID)
	if listingID == "" {
		return nil, apperrors.ErrValidation.WithMessage("listing id is required")
	}

	listing, err := listingOwner(ctx, s.db, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("nda service: load listing: %w", err)
	}

	if listing.OwnerID == actor.ID {
		return nil, apperrors.ErrInvalidOperation.WithMessage("cannot request an NDA on your own listing")
	}

	request := models.NDARequest{
		ListingID: listingID,
		BuyerID:   actor.ID,
		SellerID:  listing.OwnerID,
		Status:    models.NDAPending,
		Message:   strings.TrimSpace(input.Message),
		ExpiresAt: s.now().Add(ndaValidity),
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("an active NDA request already exists for this listing")
		}
		return nil, fmt.Errorf("nda service: create request: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "nda.create",
		TargetType: "nda_request",
		TargetID:   request.ID,
		Result:     "success",
		Meta:       map[string]any{"listing_id": listingID},
	})

	return &request, nil
}

// transitionRule describes one legal edge of the state machine.
type transitionRule struct {
	from models.NDAStatus
	// sellerActs: the seller decides; otherwise the buyer does.
	sellerActs bool
}

// legal transitions, keyed by target status. Everything else is rejected.
var ndaTransitions = map[models.NDAStatus]transitionRule{
	models.NDAApproved: {from: models.NDAPending, sellerActs: true},
	models.NDARejected: {from: models.NDAPending, sellerActs: true},
	models.NDASigned:   {from: models.NDAApproved, sellerActs: false},
}

// authorizeTransition is the single authorization point for every transition
// entry point. It returns the required source status, or an error:
// ValidationError for unknown targets, Conflict when the request has already
// left the required source state, Forbidden when the actor may not act.
func authorizeTransition(actor Actor, request *models.NDARequest, target models.NDAStatus) (models.NDAStatus, error) {
	rule, ok := ndaTransitions[target]
	if !ok {
		return "", apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown target status %q", target))
	}

	if request.Status != rule.from {
		return "", apperrors.ErrConflict.WithMessage(
			fmt.Sprintf("cannot move a %s request to %s", request.Status, target))
	}

	if actor.Privileged() {
		return rule.from, nil
	}
	if rule.sellerActs && actor.ID == request.SellerID {
		return rule.from, nil
	}
	if !rule.sellerActs && actor.ID == request.BuyerID {
		return rule.from, nil
	}
	return "", apperrors.ErrForbidden
}

// Transition moves an NDA request along the state machine. The write is a
// status-guarded UPDATE: a concurrent writer that got there first leaves zero
// affected rows and the loser fails with Conflict instead of overwriting.
func (s *NDAService) Transition(ctx context.Context, actor Actor, ndaID string, target models.NDAStatus) (*models.NDARequest, error) {
	ctx = ensureContext(ctx)

	var request models.NDARequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", ndaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("nda service: load request: %w", err)
	}

	from, err := authorizeTransition(actor, &request, target)
	if err != nil {
		s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			Action:     "nda.transition",
			TargetType: "nda_request",
			TargetID:   request.ID,
			Result:     "denied",
			Meta:       map[string]any{"target": string(target)},
		})
		return nil, err
	}

	now := s.now()
	updates := map[string]any{"status": target}
	switch target {
	case models.NDAApproved:
		updates["approved_at"] = now
		updates["viewed_at"] = now
	case models.NDARejected:
		updates["rejected_at"] = now
		updates["viewed_at"] = now
		updates["active_key"] = nil
	case models.NDASigned:
		updates["signed_at"] = now
		updates["active_key"] = nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.NDARequest{}).
		Where("id = ? AND status = ?", request.ID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("nda service: transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent transition won the race.
		return nil, apperrors.ErrConflict.WithMessage("the request was modified concurrently")
	}

	metrics.NDATransitions.WithLabelValues(string(target)).Inc()

	if err := s.db.WithContext(ctx).First(&request, "id = ?", request.ID).Error; err != nil {
		return nil, fmt.Errorf("nda service: reload request: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "nda.transition",
		TargetType: "nda_request",
		TargetID:   request.ID,
		Result:     "success",
		Meta:       map[string]any{"from": string(from), "to": string(target)},
	})

	s.fireTransitionSideEffects(ctx, &request, target)

	return &request, nil
}

// fireTransitionSideEffects delivers messages, notifications and emails after
// a successful transition. All of it is best effort: a broken side channel is
// logged, never rolled back into the state change.
func (s *NDAService) fireTransitionSideEffects(ctx context.Context, request *models.NDARequest, target models.NDAStatus) {
	switch target {
	case models.NDAApproved:
		// First contact: approving the NDA opens the conversation.
		message := models.Message{
			ListingID:   request.ListingID,
			SenderID:    request.SellerID,
			RecipientID: request.BuyerID,
			Body:        "Your NDA request has been approved. You now have access to the confidential material.",
		}
		if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
			s.log.Warn("first contact message failed", zap.String("nda_id", request.ID), zap.Error(err))
		}

		s.notifications.NotifyBestEffort(ctx, CreateNotificationInput{
			UserID:   request.BuyerID,
			Type:     "nda.approved",
			Title:    "NDA approved",
			Message:  "The seller approved your NDA request.",
			Metadata: map[string]any{"nda_id": request.ID, "listing_id": request.ListingID},
		})
		s.emailParticipant(ctx, request.BuyerID, "NDA approved",
			"The seller approved your NDA request. Sign it to proceed with due diligence.")

	case models.NDARejected:
		s.notifications.NotifyBestEffort(ctx, CreateNotificationInput{
			UserID:   request.BuyerID,
			Type:     "nda.rejected",
			Title:    "NDA rejected",
			Message:  "The seller rejected your NDA request.",
			Metadata: map[string]any{"nda_id": request.ID, "listing_id": request.ListingID},
		})

	case models.NDASigned:
		s.notifications.NotifyBestEffort(ctx, CreateNotificationInput{
			UserID:   request.SellerID,
			Type:     "nda.signed",
			Title:    "NDA signed",
			Message:  "The buyer signed the NDA.",
			Metadata: map[string]any{"nda_id": request.ID, "listing_id": request.ListingID},
		})
	}
}

func (s *NDAService) emailParticipant(ctx context.Context, userID, subject, body string) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		s.log.Warn("email lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.notifications.EmailBestEffort(ctx, user.Email, subject, body)
}

// Delete removes an NDA request permanently. Only participants or an admin
// may do this; there is no soft delete.
func (s *NDAService) Delete(ctx context.Context, actor Actor, ndaID string) error {
	ctx = ensureContext(ctx)

	var request models.NDARequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", ndaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("nda service: load request: %w", err)
	}

	isParticipant := actor.ID == request.BuyerID || actor.ID == request.SellerID
	if !isParticipant && actor.Role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.NDARequest{}, "id = ?", request.ID).Error; err != nil {
		return fmt.Errorf("nda service: delete request: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "nda.delete",
		TargetType: "nda_request",
		TargetID:   request.ID,
		Result:     "success",
		Meta:       map[string]any{"listing_id": request.ListingID, "status": string(request.Status)},
	})
	return nil
}

// Get loads one NDA request, scoped to participants unless privileged.
func (s *NDAService) Get(ctx context.Context, actor Actor, ndaID string) (*models.NDARequest, error) {
	ctx = ensureContext(ctx)

	var request models.NDARequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", ndaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("nda service: load request: %w", err)
	}

	if !actor.Privileged() && actor.ID != request.BuyerID && actor.ID != request.SellerID {
		return nil, apperrors.ErrForbidden
	}
	return &request, nil
}

// List returns NDA requests visible to the actor, newest first. Privileged
// roles see everything; everyone else only rows where they are buyer or seller.
func (s *NDAService) List(ctx context.Context, actor Actor, filters NDAListFilters) ([]models.NDARequest, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.NDARequest{})
	if !actor.Privileged() {
		query = query.Where("buyer_id = ? OR seller_id = ?", actor.ID, actor.ID)
	}
	if listingID := strings.TrimSpace(filters.ListingID); listingID != "" {
		query = query.Where("listing_id = ?", listingID)
	}
	if filters.Status != "" {
		if !filters.Status.Valid() {
			return nil, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown status %q", filters.Status))
		}
		query = query.Where("status = ?", filters.Status)
	}

	var rows []models.NDARequest
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("nda service: list requests: %w", err)
	}
	return rows, nil
}

// ActiveForViewer returns the viewer's NDA for a listing when it is in
// approved or signed state. Used to assemble resolver input; the advisory
// expiry check happens in the resolver itself.
func (s *NDAService) ActiveForViewer(ctx context.Context, listingID, viewerID string) (*models.NDARequest, error) {
	ctx = ensureContext(ctx)

	var request models.NDARequest
	err := s.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND status IN ?",
			listingID, viewerID, []models.NDAStatus{models.NDAApproved, models.NDASigned}).
		Order("created_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("nda service: load viewer nda: %w", err)
	}
	return &request, nil
}

// ExpiringBefore lists approved NDAs that expire before the cutoff. The
// maintenance sweep uses it to warn buyers; nothing transitions automatically.
func (s *NDAService) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.NDARequest, error) {
	ctx = ensureContext(ctx)

	var rows []models.NDARequest
	if err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.NDAApproved, cutoff).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("nda service: list expiring: %w", err)
	}
	return rows, nil
}
