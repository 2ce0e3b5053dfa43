package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/cache"
	"github.com/dealbridge/dealroom/internal/catalog"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/readiness"
	"github.com/dealbridge/dealroom/pkg/logger"
	"github.com/dealbridge/dealroom/pkg/metrics"
)

const readinessCacheTTL = 5 * time.Minute

// ReadinessService computes completeness scores for a data room's document
// set. Scores are always recomputed from the full current set; the cache is a
// plain serialization of the last result and never mutated incrementally.
type ReadinessService struct {
	db    *gorm.DB
	store cache.Store
	log   *zap.Logger
}

// NewReadinessService constructs the scoring service. The cache store is
// optional.
func NewReadinessService(db *gorm.DB, store cache.Store) (*ReadinessService, error) {
	if db == nil {
		return nil, errors.New("readiness service: db is required")
	}
	return &ReadinessService{db: db, store: store, log: logger.WithModule("readiness")}, nil
}

// Compute evaluates the room's readiness, serving from cache when possible.
func (s *ReadinessService) Compute(ctx context.Context, dataRoomID string) (*readiness.Result, error) {
	ctx = ensureContext(ctx)

	if s.store != nil {
		if data, ok, err := s.store.Get(ctx, readinessCacheKey(dataRoomID)); err == nil && ok {
			var cached readiness.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		} else if err != nil {
			s.log.Warn("readiness cache read failed", zap.String("data_room_id", dataRoomID), zap.Error(err))
		}
	}

	result, err := s.computeFresh(ctx, dataRoomID)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.store.Set(ctx, readinessCacheKey(dataRoomID), data, readinessCacheTTL); err != nil {
				s.log.Warn("readiness cache write failed", zap.String("data_room_id", dataRoomID), zap.Error(err))
			}
		}
	}

	return result, nil
}

func (s *ReadinessService) computeFresh(ctx context.Context, dataRoomID string) (*readiness.Result, error) {
	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Where("data_room_id = ? AND requirement_id IS NOT NULL", dataRoomID).
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("readiness service: load documents: %w", err)
	}

	reqs, err := s.orderedRequirements(ctx)
	if err != nil {
		return nil, err
	}

	metas := make([]readiness.DocumentMeta, 0, len(docs))
	for _, doc := range docs {
		meta := readiness.DocumentMeta{
			Category: models.RequirementCategory(doc.Category),
			MimeType: doc.MimeType,
			Signed:   doc.Signed,
			Verified: doc.Status == models.DocumentVerified,
		}
		if doc.RequirementID != nil {
			meta.RequirementID = *doc.RequirementID
		}
		if doc.PeriodYear != nil {
			year := *doc.PeriodYear
			meta.PeriodYear = &year
		}
		metas = append(metas, meta)
	}

	result := readiness.Compute(metas, reqs)
	metrics.ReadinessRecomputes.Inc()
	return &result, nil
}

// orderedRequirements loads the seeded catalog rows in canonical order.
func (s *ReadinessService) orderedRequirements(ctx context.Context) ([]models.Requirement, error) {
	var rows []models.Requirement
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("readiness service: load catalog: %w", err)
	}

	byID := make(map[string]models.Requirement, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]models.Requirement, 0, len(rows))
	for _, item := range catalog.All() {
		if row, ok := byID[item.ID]; ok {
			ordered = append(ordered, row)
			delete(byID, item.ID)
		}
	}
	// Rows seeded by an older catalog version still count.
	for _, row := range rows {
		if _, leftover := byID[row.ID]; leftover {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// Invalidate drops the cached result after a document change.
func (s *ReadinessService) Invalidate(ctx context.Context, dataRoomID string) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ensureContext(ctx), readinessCacheKey(dataRoomID)); err != nil {
		s.log.Warn("readiness cache invalidation failed", zap.String("data_room_id", dataRoomID), zap.Error(err))
	}
}

func readinessCacheKey(dataRoomID string) string {
	return "readiness:" + dataRoomID
}
