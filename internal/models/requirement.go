package models

import "gorm.io/datatypes"

// RequirementCategory groups due-diligence checklist items.
type RequirementCategory string

// Due-diligence categories as used on the Swedish market.
const (
	CategoryFinans       RequirementCategory = "finans"
	CategorySkatt        RequirementCategory = "skatt"
	CategoryJuridik      RequirementCategory = "juridik"
	CategoryHR           RequirementCategory = "hr"
	CategoryKommersiellt RequirementCategory = "kommersiellt"
	CategoryIT           RequirementCategory = "it"
	CategoryOperation    RequirementCategory = "operation"
)

// Valid reports whether the value is a known requirement category.
func (c RequirementCategory) Valid() bool {
	switch c {
	case CategoryFinans, CategorySkatt, CategoryJuridik, CategoryHR,
		CategoryKommersiellt, CategoryIT, CategoryOperation:
		return true
	}
	return false
}

// Requirement is a canonical due-diligence checklist item. The catalog is
// seeded at startup and read-only at runtime.
type Requirement struct {
	ID          string              `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Category    RequirementCategory `gorm:"type:varchar(32);index;not null" json:"category"`
	Title       string              `gorm:"type:varchar(255);not null" json:"title"`
	Description string              `gorm:"type:text" json:"description"`
	Mandatory   bool                `gorm:"not null;default:false" json:"mandatory"`

	// DocTypes lists accepted file extensions, e.g. ["pdf","xlsx"].
	DocTypes          datatypes.JSON `json:"doc_types"`
	MinYears          *int           `json:"min_years,omitempty"`
	RequiresSignature bool           `gorm:"not null;default:false" json:"requires_signature"`

	CatalogVersion int `gorm:"not null;default:1" json:"catalog_version"`
}
