package models

// Listing is a company sale mandate. Ownership drives NDA seller derivation
// and OWNER-level authorization for the attached data room.
type Listing struct {
	BaseModel

	OwnerID string `gorm:"type:uuid;index;not null" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Status  string `gorm:"type:varchar(32);default:'active'" json:"status"`
}
