package models

import (
	"gorm.io/datatypes"
)

// Visibility controls which viewers may see a document.
type Visibility string

// Document visibility policies.
const (
	VisibilityAll             Visibility = "ALL"
	VisibilityOwnerOnly       Visibility = "OWNER_ONLY"
	VisibilityNDAOnly         Visibility = "NDA_ONLY"
	VisibilityTransactionOnly Visibility = "TRANSACTION_ONLY"
	VisibilityCustom          Visibility = "CUSTOM"
)

// Valid reports whether the value is a known visibility policy.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityAll, VisibilityOwnerOnly, VisibilityNDAOnly, VisibilityTransactionOnly, VisibilityCustom:
		return true
	}
	return false
}

// DocumentStatus tracks a document through readiness evaluation.
type DocumentStatus string

// Document statuses. Verified is set when the content analyzer confirms the
// upload satisfies its requirement.
const (
	DocumentUploaded DocumentStatus = "uploaded"
	DocumentVerified DocumentStatus = "verified"
)

// DocumentPolicy is the per-document access rule, embedded on the document row
// and mutated only by room OWNER/EDITOR members.
type DocumentPolicy struct {
	Visibility        Visibility     `gorm:"type:varchar(32);not null;default:'OWNER_ONLY'" json:"visibility"`
	DownloadBlocked   bool           `gorm:"not null;default:false" json:"download_blocked"`
	WatermarkRequired bool           `gorm:"not null;default:false" json:"watermark_required"`
	Grants            datatypes.JSON `json:"grants,omitempty"` // e-mail list, CUSTOM only
}

// Document is an uploaded deal document inside a data room.
type Document struct {
	BaseModel

	DataRoomID string    `gorm:"type:uuid;index;not null" json:"data_room_id"`
	DataRoom   *DataRoom `gorm:"foreignKey:DataRoomID" json:"data_room,omitempty"`

	// RequirementID links the upload to a due-diligence checklist item; ad-hoc
	// documents carry no requirement and never affect readiness.
	RequirementID *string  `gorm:"type:varchar(64);index" json:"requirement_id,omitempty"`
	Category      string   `gorm:"type:varchar(32);index" json:"category"`
	Title         string   `gorm:"type:varchar(255);not null" json:"title"`
	FileKey       string   `gorm:"type:varchar(512);not null" json:"file_key"`
	MimeType      string   `gorm:"type:varchar(128)" json:"mime_type"`
	SizeBytes     int64    `json:"size_bytes"`
	PeriodYear    *int     `json:"period_year,omitempty"`
	Signed        bool     `gorm:"not null;default:false" json:"signed"`
	UploadedByID  string   `gorm:"type:uuid;index" json:"uploaded_by_id"`

	Status           DocumentStatus `gorm:"type:varchar(16);not null;default:'uploaded'" json:"status"`
	AnalyzerScore    *int           `json:"analyzer_score,omitempty"`
	AnalyzerFindings datatypes.JSON `json:"analyzer_findings,omitempty"`

	Policy DocumentPolicy `gorm:"embedded;embeddedPrefix:policy_" json:"policy"`
}
