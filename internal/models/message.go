package models

// Message is a listing-scoped chat message between buyer and seller. The NDA
// approval flow creates the first-contact message opening the conversation.
type Message struct {
	BaseModel

	ListingID   string `gorm:"type:uuid;index;not null" json:"listing_id"`
	SenderID    string `gorm:"type:uuid;index;not null" json:"sender_id"`
	RecipientID string `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Body        string `gorm:"type:text;not null" json:"body"`
}
