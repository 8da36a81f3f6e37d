package data

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

// PurchaseLedger owns durable purchase state. Transaction references are
// unique at the storage layer, so two writers cannot both win.
type PurchaseLedger struct {
	db *gorm.DB
}

func NewPurchaseLedger(db *gorm.DB) *PurchaseLedger {
	return &PurchaseLedger{db: db}
}

// WithTx returns a ledger bound to an open transaction.
func (l *PurchaseLedger) WithTx(tx *gorm.DB) *PurchaseLedger {
	return &PurchaseLedger{db: tx}
}

func randomTxRef() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Create records a new PENDING purchase with a freshly generated transaction
// reference. A reference collision retries once with a new reference before
// giving up with ErrConflict.
func (l *PurchaseLedger) Create(userID, productID string, amount float64) (*types.Purchase, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		txRef, err := randomTxRef()
		if err != nil {
			return nil, fmt.Errorf("generate tx ref: %w", err)
		}

		p := types.Purchase{
			PurchaseID: "PUR-" + uuid.NewString(),
			UserID:     userID,
			ProductID:  productID,
			TxRef:      txRef,
			Amount:     amount,
			Status:     types.PurchasePending,
		}
		if err := l.db.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				lastErr = ErrConflict
				continue
			}
			return nil, err
		}
		return &p, nil
	}
	return nil, lastErr
}

// FindByTxRef looks up a purchase by its transaction reference.
func (l *PurchaseLedger) FindByTxRef(txRef string) (*types.Purchase, error) {
	var p types.Purchase
	if err := l.db.First(&p, "tx_ref = ?", txRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Verify transitions the purchase to VERIFIED and unlocks its review
// permission. Idempotent: a VERIFIED purchase is returned as-is with no
// further mutation.
func (l *PurchaseLedger) Verify(txRef string) (*types.Purchase, error) {
	p, err := l.FindByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	if p.Status == types.PurchaseVerified {
		return p, nil
	}

	now := time.Now()
	res := l.db.Model(&types.Purchase{}).
		Where("tx_ref = ? AND status = ?", txRef, types.PurchasePending).
		Updates(map[string]interface{}{
			"status":         types.PurchaseVerified,
			"verified":       true,
			"review_allowed": true,
			"verified_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	// RowsAffected == 0 means a concurrent verify got there first, which is
	// the same outcome.
	return l.FindByTxRef(txRef)
}

// FindEligibleForReview returns the purchase only if it belongs to the buyer
// and product, is VERIFIED, still permits a review, and has no review yet.
func (l *PurchaseLedger) FindEligibleForReview(userID, productID, txRef string) (*types.Purchase, error) {
	var p types.Purchase
	err := l.db.First(&p,
		"user_id = ? AND product_id = ? AND tx_ref = ? AND verified = ? AND review_allowed = ? AND review_submitted = ?",
		userID, productID, txRef, true, true, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ConsumeReviewPermission flips the purchase to review-submitted and stores
// the review back-reference. The guard on review_submitted makes this a
// single conditional update: exactly one of any number of concurrent callers
// succeeds, the rest get ErrAlreadySubmitted.
func (l *PurchaseLedger) ConsumeReviewPermission(txRef string, reviewID uint64) error {
	res := l.db.Model(&types.Purchase{}).
		Where("tx_ref = ? AND review_submitted = ?", txRef, false).
		Updates(map[string]interface{}{
			"review_submitted": true,
			"review_allowed":   false,
			"review_id":        reviewID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var p types.Purchase
		if err := l.db.First(&p, "tx_ref = ?", txRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return ErrAlreadySubmitted
	}
	return nil
}

// LatestReviewable returns the buyer's most recent purchase of the product
// that can still author a review.
func (l *PurchaseLedger) LatestReviewable(userID, productID string) (*types.Purchase, error) {
	var p types.Purchase
	err := l.db.
		Where("user_id = ? AND product_id = ? AND verified = ? AND review_allowed = ? AND review_submitted = ?",
			userID, productID, true, true, false).
		Order("created_at desc").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the buyer's purchase history, newest first.
func (l *PurchaseLedger) ListByUser(userID string) ([]types.Purchase, error) {
	var purchases []types.Purchase
	if err := l.db.Where("user_id = ?", userID).Order("created_at desc").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}
