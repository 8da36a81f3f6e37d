package types

import "time"

// Purchase verification states
const (
	PurchasePending  = "PENDING"
	PurchaseVerified = "VERIFIED"
)

// Review authenticity labels
const (
	LabelPending    = "PENDING"
	LabelReal       = "REAL"
	LabelFake       = "FAKE"
	LabelUnverified = "UNVERIFIED"
)

// Products (catalog is an external concern; we only keep what purchase
// validation needs)
type Product struct {
	ID        uint32  `gorm:"primaryKey"`
	ProductID string  `gorm:"size:32;uniqueIndex;not null"`
	Name      string  `gorm:"size:128;not null"`
	Price     float64 `gorm:"not null"`
	Category  string  `gorm:"size:64"`
	CreatedAt time.Time
}

// Purchases
type Purchase struct {
	ID         uint64 `gorm:"primaryKey"`
	PurchaseID string `gorm:"size:64;uniqueIndex;not null"` // opaque public id, PUR-<uuid>
	UserID     string `gorm:"size:64;index:idx_user_product;not null"`
	ProductID  string `gorm:"size:32;index:idx_user_product;not null"`
	TxRef      string `gorm:"size:66;uniqueIndex;not null"` // payment transaction reference
	Amount     float64
	Status     string `gorm:"size:16;default:PENDING"`
	Verified   bool   `gorm:"default:false"`
	// review gating
	ReviewAllowed   bool    `gorm:"default:false"`
	ReviewSubmitted bool    `gorm:"default:false"`
	ReviewID        *uint64 // set once when the permission is consumed
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reviews
type Review struct {
	ID              uint64 `gorm:"primaryKey"`
	UserID          string `gorm:"size:64;index;not null"`
	ProductID       string `gorm:"size:32;index;not null"`
	Body            string `gorm:"type:text;not null"`
	Rating          int    `gorm:"not null"`
	Label           string `gorm:"size:16;default:PENDING"`
	FakeProbability int    `gorm:"default:0"` // 0..100
	TxRef           string `gorm:"size:66;uniqueIndex;not null"` // content fingerprint
	PurchaseTxRef   string `gorm:"size:66;index;not null"`
	PurchaseID      uint64 `gorm:"index;not null"`
	ReviewerName    string `gorm:"size:64"`
	Anchored        bool   `gorm:"default:false"`
	AnchorRef       *string `gorm:"size:128"` // ledger reference, nil until anchored
	CreatedAt       time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
