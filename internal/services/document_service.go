package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/analyzer"
	"github.com/dealbridge/dealroom/internal/catalog"
	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/storage"
	"github.com/dealbridge/dealroom/internal/visibility"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
	"github.com/dealbridge/dealroom/pkg/metrics"
)

// RegisterUploadInput describes a file the seller is about to upload.
type RegisterUploadInput struct {
	DataRoomID    string `json:"data_room_id" binding:"required"`
	RequirementID string `json:"requirement_id"`
	Title         string `json:"title" binding:"required"`
	FileName      string `json:"file_name" binding:"required"`
	MimeType      string `json:"mime_type"`
	SizeBytes     int64  `json:"size_bytes"`
	PeriodYear    *int   `json:"period_year"`
	Signed        bool   `json:"signed"`
}

// RegisteredUpload couples the created document with its presigned PUT URL.
type RegisteredUpload struct {
	Document  *models.Document `json:"document"`
	UploadURL string           `json:"upload_url"`
}

// SetPolicyInput mutates a document's access policy.
type SetPolicyInput struct {
	Visibility        models.Visibility `json:"visibility" binding:"required"`
	DownloadBlocked   bool              `json:"download_blocked"`
	WatermarkRequired bool              `json:"watermark_required"`
	Grants            []string          `json:"grants"`
}

// AccessAction is the kind of access being attempted.
type AccessAction string

// Access actions recorded in the audit trail.
const (
	ActionView     AccessAction = "view"
	ActionDownload AccessAction = "download"
)

// AccessResult is the resolver decision plus, when granted, a download URL.
type AccessResult struct {
	Decision    visibility.Decision `json:"decision"`
	DownloadURL string              `json:"download_url,omitempty"`
}

// DocumentService manages deal documents, their policies and access checks.
type DocumentService struct {
	db        *gorm.DB
	audit     *AuditService
	ndas      *NDAService
	readiness *ReadinessService
	presigner storage.Presigner
}

// NewDocumentService constructs the document service.
func NewDocumentService(db *gorm.DB, audit *AuditService, ndas *NDAService, readinessSvc *ReadinessService, presigner storage.Presigner) (*DocumentService, error) {
	if db == nil {
		return nil, errors.New("document service: db is required")
	}
	if audit == nil {
		return nil, errors.New("document service: audit recorder is required")
	}
	if ndas == nil {
		return nil, errors.New("document service: nda service is required")
	}
	if readinessSvc == nil {
		return nil, errors.New("document service: readiness service is required")
	}
	if presigner == nil {
		return nil, errors.New("document service: presigner is required")
	}
	return &DocumentService{
		db:        db,
		audit:     audit,
		ndas:      ndas,
		readiness: readinessSvc,
		presigner: presigner,
	}, nil
}

// RegisterUpload records document metadata and returns a presigned upload URL.
// Only room managers may add documents. New documents start OWNER_ONLY.
func (s *DocumentService) RegisterUpload(ctx context.Context, actor Actor, input RegisterUploadInput) (*RegisteredUpload, error) {
	ctx = ensureContext(ctx)

	room, err := s.loadRoom(ctx, input.DataRoomID)
	if err != nil {
		return nil, err
	}

	role, err := roomRoleFor(ctx, s.db, room.ID, actor)
	if err != nil {
		return nil, fmt.Errorf("document service: %w", err)
	}
	if !role.Manages() {
		return nil, apperrors.ErrForbidden
	}

	doc := models.Document{
		DataRoomID:   room.ID,
		Title:        strings.TrimSpace(input.Title),
		MimeType:     strings.TrimSpace(input.MimeType),
		SizeBytes:    input.SizeBytes,
		Signed:       input.Signed,
		UploadedByID: actor.ID,
		Status:       models.DocumentUploaded,
		Policy:       models.DocumentPolicy{Visibility: models.VisibilityOwnerOnly},
	}

	if reqID := strings.TrimSpace(input.RequirementID); reqID != "" {
		item, ok := catalog.Get(reqID)
		if !ok {
			return nil, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown requirement %q", reqID))
		}
		doc.RequirementID = &reqID
		doc.Category = string(item.Category)
	}
	if input.PeriodYear != nil {
		year := *input.PeriodYear
		doc.PeriodYear = &year
	}

	doc.FileKey = fmt.Sprintf("rooms/%s/%s", room.ID, strings.TrimSpace(input.FileName))

	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("document service: create document: %w", err)
	}

	uploadURL, err := s.presigner.PresignUpload(doc.FileKey, doc.MimeType)
	if err != nil {
		return nil, fmt.Errorf("document service: presign upload: %w", err)
	}

	s.readiness.Invalidate(ctx, room.ID)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "document.upload",
		TargetType: "document",
		TargetID:   doc.ID,
		DataRoomID: room.ID,
		Result:     "success",
		Meta:       map[string]any{"requirement_id": input.RequirementID, "title": doc.Title},
	})

	return &RegisteredUpload{Document: &doc, UploadURL: uploadURL}, nil
}

// SetPolicy replaces a document's access policy. Restricted to room managers.
// A CUSTOM policy with an empty grant set is rejected before it can reach
// storage: the resolver would deny everyone anyway, the guard just fails fast.
func (s *DocumentService) SetPolicy(ctx context.Context, actor Actor, documentID string, input SetPolicyInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	role, err := roomRoleFor(ctx, s.db, doc.DataRoomID, actor)
	if err != nil {
		return nil, fmt.Errorf("document service: %w", err)
	}
	if !role.Manages() {
		return nil, apperrors.ErrForbidden
	}

	if !input.Visibility.Valid() {
		return nil, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown visibility %q", input.Visibility))
	}

	grants := normaliseGrants(input.Grants)
	if input.Visibility == models.VisibilityCustom && len(grants) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("custom visibility requires at least one grant")
	}
	if input.Visibility != models.VisibilityCustom {
		grants = nil
	}

	var grantsJSON datatypes.JSON
	if grants != nil {
		encoded, err := json.Marshal(grants)
		if err != nil {
			return nil, fmt.Errorf("document service: marshal grants: %w", err)
		}
		grantsJSON = datatypes.JSON(encoded)
	}

	updates := map[string]any{
		"policy_visibility":         input.Visibility,
		"policy_download_blocked":   input.DownloadBlocked,
		"policy_watermark_required": input.WatermarkRequired,
		"policy_grants":             grantsJSON,
	}
	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("document service: update policy: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "document.policy",
		TargetType: "document",
		TargetID:   doc.ID,
		DataRoomID: doc.DataRoomID,
		Result:     "success",
		Meta:       map[string]any{"visibility": string(input.Visibility)},
	})

	return s.loadDocument(ctx, documentID)
}

// Access resolves whether the actor may view or download the document. Every
// attempt, granted or denied, leaves exactly one audit entry. A granted
// download additionally yields a presigned URL.
func (s *DocumentService) Access(ctx context.Context, actor Actor, documentID string, action AccessAction) (*AccessResult, error) {
	ctx = ensureContext(ctx)

	if action != ActionView && action != ActionDownload {
		return nil, apperrors.ErrValidation.WithMessage(fmt.Sprintf("unknown access action %q", action))
	}

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	viewer, err := s.viewerContext(ctx, actor, doc)
	if err != nil {
		return nil, err
	}

	decision := visibility.Resolve(policyOf(doc), *viewer)

	granted := decision.CanView
	if action == ActionDownload {
		granted = decision.CanDownload
	}
	result := "deny"
	if granted {
		result = "allow"
	}

	metrics.AccessDecisions.WithLabelValues(string(action), result).Inc()
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "document." + string(action),
		TargetType: "document",
		TargetID:   doc.ID,
		DataRoomID: doc.DataRoomID,
		Result:     result,
		Meta: map[string]any{
			"visibility":         string(doc.Policy.Visibility),
			"can_view":           decision.CanView,
			"can_download":       decision.CanDownload,
			"requires_watermark": decision.RequiresWatermark,
		},
	})

	access := &AccessResult{Decision: decision}
	if action == ActionDownload && decision.CanDownload {
		url, err := s.presigner.PresignDownload(doc.FileKey)
		if err != nil {
			return nil, fmt.Errorf("document service: presign download: %w", err)
		}
		access.DownloadURL = url
	}
	return access, nil
}

// Delete removes a document and recomputes readiness for its room.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, documentID string) error {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	role, err := roomRoleFor(ctx, s.db, doc.DataRoomID, actor)
	if err != nil {
		return fmt.Errorf("document service: %w", err)
	}
	if !role.Manages() {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", doc.ID).Error; err != nil {
		return fmt.Errorf("document service: delete document: %w", err)
	}

	s.readiness.Invalidate(ctx, doc.DataRoomID)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     "document.delete",
		TargetType: "document",
		TargetID:   doc.ID,
		DataRoomID: doc.DataRoomID,
		Result:     "success",
	})
	return nil
}

// ListForRoom returns a room's documents for members; the resolver still
// applies per document when one is opened.
func (s *DocumentService) ListForRoom(ctx context.Context, actor Actor, dataRoomID string) ([]models.Document, error) {
	ctx = ensureContext(ctx)

	room, err := s.loadRoom(ctx, dataRoomID)
	if err != nil {
		return nil, err
	}

	role, err := roomRoleFor(ctx, s.db, room.ID, actor)
	if err != nil {
		return nil, fmt.Errorf("document service: %w", err)
	}
	if role == "" {
		return nil, apperrors.ErrForbidden
	}

	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Where("data_room_id = ?", room.ID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("document service: list documents: %w", err)
	}
	return docs, nil
}

// ApplyAnalysis consumes the content analyzer's verdict, promoting the
// document to verified when it passes. The analyzer is opaque to this core.
func (s *DocumentService) ApplyAnalysis(ctx context.Context, documentID string, verdict analyzer.Result) (*models.Document, error) {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"analyzer_score": verdict.Score}
	if len(verdict.Findings) > 0 {
		encoded, err := json.Marshal(verdict.Findings)
		if err != nil {
			return nil, fmt.Errorf("document service: marshal findings: %w", err)
		}
		updates["analyzer_findings"] = datatypes.JSON(encoded)
	}
	if verdict.Verified() {
		updates["status"] = models.DocumentVerified
	}

	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("document service: apply analysis: %w", err)
	}

	s.readiness.Invalidate(ctx, doc.DataRoomID)
	return s.loadDocument(ctx, documentID)
}

func (s *DocumentService) loadRoom(ctx context.Context, roomID string) (*models.DataRoom, error) {
	var room models.DataRoom
	if err := s.db.WithContext(ctx).First(&room, "id = ?", strings.TrimSpace(roomID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("document service: load room: %w", err)
	}
	return &room, nil
}

func (s *DocumentService) loadDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", strings.TrimSpace(documentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("document service: load document: %w", err)
	}
	return &doc, nil
}

// viewerContext assembles the resolver input for one viewer and document.
func (s *DocumentService) viewerContext(ctx context.Context, actor Actor, doc *models.Document) (*visibility.ViewerContext, error) {
	room, err := s.loadRoom(ctx, doc.DataRoomID)
	if err != nil {
		return nil, err
	}

	role, err := roomRoleFor(ctx, s.db, room.ID, actor)
	if err != nil {
		return nil, fmt.Errorf("document service: %w", err)
	}

	viewer := visibility.ViewerContext{
		RoomRole: role,
		Email:    actor.Email,
		Now:      nowUTC(),
	}

	nda, err := s.ndas.ActiveForViewer(ctx, room.ListingID, actor.ID)
	if err != nil {
		return nil, err
	}
	if nda != nil {
		viewer.NDAStatus = nda.Status
		viewer.NDAExpiresAt = nda.ExpiresAt
	}

	var txnCount int64
	if err := s.db.WithContext(ctx).
		Model(&models.TransactionRecord{}).
		Where("listing_id = ? AND buyer_id = ?", room.ListingID, actor.ID).
		Count(&txnCount).Error; err != nil {
		return nil, fmt.Errorf("document service: count transactions: %w", err)
	}
	viewer.HasTransaction = txnCount > 0

	return &viewer, nil
}

func policyOf(doc *models.Document) visibility.Policy {
	policy := visibility.Policy{
		Visibility:        doc.Policy.Visibility,
		DownloadBlocked:   doc.Policy.DownloadBlocked,
		WatermarkRequired: doc.Policy.WatermarkRequired,
	}
	if len(doc.Policy.Grants) > 0 {
		var grants []string
		if err := json.Unmarshal(doc.Policy.Grants, &grants); err == nil {
			policy.Grants = grants
		}
	}
	return policy
}

func normaliseGrants(grants []string) []string {
	seen := make(map[string]struct{}, len(grants))
	var out []string
	for _, grant := range grants {
		grant = strings.ToLower(strings.TrimSpace(grant))
		if grant == "" {
			continue
		}
		if _, dup := seen[grant]; dup {
			continue
		}
		seen[grant] = struct{}{}
		out = append(out, grant)
	}
	return out
}
