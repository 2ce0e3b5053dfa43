package models

// TransactionRecord evidences an active deal between a buyer and a listing.
// Its existence alone satisfies TRANSACTION_ONLY document visibility.
type TransactionRecord struct {
	BaseModel

	ListingID string `gorm:"type:uuid;index:idx_txn_listing_buyer,unique;not null" json:"listing_id"`
	BuyerID   string `gorm:"type:uuid;index:idx_txn_listing_buyer,unique;not null" json:"buyer_id"`
	Stage     string `gorm:"type:varchar(32);default:'loi'" json:"stage"`
}
