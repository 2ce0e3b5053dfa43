package models

// RoomRole is a viewer's role inside one data room.
type RoomRole string

// Data room roles. OWNER and EDITOR get baseline access to every document in
// the room regardless of per-document policy.
const (
	RoomOwner  RoomRole = "OWNER"
	RoomEditor RoomRole = "EDITOR"
	RoomViewer RoomRole = "VIEWER"
)

// Valid reports whether the value is a known room role.
func (r RoomRole) Valid() bool {
	switch r {
	case RoomOwner, RoomEditor, RoomViewer:
		return true
	}
	return false
}

// Manages reports whether the role can administer the room and its policies.
func (r RoomRole) Manages() bool {
	return r == RoomOwner || r == RoomEditor
}

// DataRoom is the document container scoped to one listing's sale process.
type DataRoom struct {
	BaseModel

	ListingID string   `gorm:"type:uuid;uniqueIndex;not null" json:"listing_id"`
	Listing   *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Name      string   `gorm:"type:varchar(255)" json:"name"`
}

// DataRoomMembership grants a user a role inside one data room.
type DataRoomMembership struct {
	BaseModel

	DataRoomID string   `gorm:"type:uuid;index:idx_room_member,unique;not null" json:"data_room_id"`
	UserID     string   `gorm:"type:uuid;index:idx_room_member,unique;not null" json:"user_id"`
	User       *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role       RoomRole `gorm:"type:varchar(16);not null" json:"role"`
}
