package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/models"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
	"github.com/dealbridge/dealroom/pkg/logger"
	"github.com/dealbridge/dealroom/pkg/metrics"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	DataRoomID string
	Result     string
	Meta       map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
type AuditFilters struct {
	Action     string
	DataRoomID string
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves append-only audit log entries.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, log: logger.WithModule("audit")}, nil
}

// Record appends an audit entry. It never fails the triggering operation:
// persistence errors are logged and counted, not returned to the caller's user.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if err := s.record(ctx, entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		s.log.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

func (s *AuditService) record(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	row := models.AuditLog{
		Action:     strings.TrimSpace(entry.Action),
		TargetType: strings.TrimSpace(entry.TargetType),
		TargetID:   strings.TrimSpace(entry.TargetID),
		Result:     strings.TrimSpace(entry.Result),
	}

	if actor := strings.TrimSpace(entry.ActorID); actor != "" {
		row.ActorID = &actor
	}
	if room := strings.TrimSpace(entry.DataRoomID); room != "" {
		row.DataRoomID = &room
	}
	if entry.Meta != nil {
		encoded, err := json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("audit service: marshal meta: %w", err)
		}
		row.Meta = datatypes.JSON(encoded)
	}

	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns audit logs newest first. Only data room owners (and privileged
// platform roles) may read a room's trail.
func (s *AuditService) List(ctx context.Context, actor Actor, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	roomID := strings.TrimSpace(opts.Filters.DataRoomID)
	if roomID == "" {
		return nil, 0, apperrors.ErrBadRequest.WithMessage("data room filter is required")
	}

	role, err := roomRoleFor(ctx, s.db, roomID, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("audit service: %w", err)
	}
	if role != models.RoomOwner {
		return nil, 0, apperrors.ErrForbidden
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("data_room_id = ?", roomID)
	if action := strings.TrimSpace(opts.Filters.Action); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	var results []models.AuditLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs beyond the retention window (in days).
// Used by the maintenance scheduler only.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := nowUTC().AddDate(0, 0, -retentionDays)
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup: %w", res.Error)
	}
	return res.RowsAffected, nil
}
