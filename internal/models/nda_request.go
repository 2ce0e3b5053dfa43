package models

import (
	"time"

	"gorm.io/gorm"
)

// NDAStatus enumerates the NDA request state machine.
type NDAStatus string

// NDA lifecycle states. Rejected and signed are terminal; approved only
// accepts the signed transition.
const (
	NDAPending  NDAStatus = "pending"
	NDAApproved NDAStatus = "approved"
	NDARejected NDAStatus = "rejected"
	NDASigned   NDAStatus = "signed"
)

// Valid reports whether the value is a known NDA status.
func (s NDAStatus) Valid() bool {
	switch s {
	case NDAPending, NDAApproved, NDARejected, NDASigned:
		return true
	}
	return false
}

// Active reports whether the status blocks creation of a new request for the
// same buyer and listing.
func (s NDAStatus) Active() bool {
	return s == NDAPending || s == NDAApproved
}

// NDARequest tracks a buyer's non-disclosure agreement for one listing.
type NDARequest struct {
	BaseModel

	ListingID string   `gorm:"type:uuid;index;not null" json:"listing_id"`
	Listing   *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID   string   `gorm:"type:uuid;index;not null" json:"buyer_id"`
	Buyer     *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID  string   `gorm:"type:uuid;index;not null" json:"seller_id"`

	Status  NDAStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Message string    `gorm:"type:text" json:"message"`

	// ActiveKey holds "<listing>:<buyer>" while the request is pending or
	// approved and is cleared on terminal transitions. The unique index turns
	// the one-active-request invariant into a storage constraint instead of a
	// check-then-act race.
	ActiveKey *string `gorm:"type:varchar(80);uniqueIndex" json:"-"`

	RejectionReason *string `gorm:"type:text" json:"rejection_reason,omitempty"`

	SubmittedAt time.Time  `gorm:"not null" json:"submitted_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
}

// ActiveKeyFor builds the uniqueness key guarding active requests.
func ActiveKeyFor(listingID, buyerID string) string {
	return listingID + ":" + buyerID
}

// BeforeCreate stamps submission time and the active-key guard.
func (n *NDARequest) BeforeCreate(tx *gorm.DB) error {
	if err := n.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if n.SubmittedAt.IsZero() {
		n.SubmittedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = NDAPending
	}
	if n.Status.Active() && n.ActiveKey == nil {
		key := ActiveKeyFor(n.ListingID, n.BuyerID)
		n.ActiveKey = &key
	}
	return nil
}

// Expired reports whether the advisory expiry has passed at the given instant.
func (n *NDARequest) Expired(at time.Time) bool {
	return !n.ExpiresAt.IsZero() && at.After(n.ExpiresAt)
}
