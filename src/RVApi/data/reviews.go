package data

import (
	"errors"

	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

// ReviewLedger owns durable review state. Review transaction references
// (content fingerprints) are unique at the storage layer; duplicate
// submissions are rejected, never overwritten.
type ReviewLedger struct {
	db *gorm.DB
}

func NewReviewLedger(db *gorm.DB) *ReviewLedger {
	return &ReviewLedger{db: db}
}

// WithTx returns a ledger bound to an open transaction.
func (l *ReviewLedger) WithTx(tx *gorm.DB) *ReviewLedger {
	return &ReviewLedger{db: tx}
}

// Create persists a classified review. ErrConflict if the fingerprint was
// already recorded.
func (l *ReviewLedger) Create(r *types.Review) error {
	if err := l.db.Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// FindByTxRef looks up a review by its content fingerprint reference.
func (l *ReviewLedger) FindByTxRef(txRef string) (*types.Review, error) {
	var r types.Review
	if err := l.db.First(&r, "tx_ref = ?", txRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListByUser returns the buyer's reviews, newest first.
func (l *ReviewLedger) ListByUser(userID string, page, limit int) ([]types.Review, int64, error) {
	var total int64
	if err := l.db.Model(&types.Review{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []types.Review
	err := l.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByProduct returns a page of a product's reviews. filter is one of
// all|real|fake, sort one of newest|highest_rated|lowest_rated.
func (l *ReviewLedger) ListByProduct(productID string, page, limit int, sort, filter string) ([]types.Review, int64, error) {
	q := l.db.Model(&types.Review{}).Where("product_id = ?", productID)

	switch filter {
	case "real":
		q = q.Where("label = ?", types.LabelReal)
	case "fake":
		q = q.Where("label = ?", types.LabelFake)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	switch sort {
	case "highest_rated":
		order = "rating desc"
	case "lowest_rated":
		order = "rating asc"
	}

	var reviews []types.Review
	err := q.Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ReviewStats aggregates a product's review population.
type ReviewStats struct {
	AverageRating float64
	TotalReviews  int64
	RealReviews   int64
	FakeReviews   int64
	AnchoredCount int64
	Rating1       int64
	Rating2       int64
	Rating3       int64
	Rating4       int64
	Rating5       int64
}

// StatsByProduct computes aggregate statistics in a single query.
func (l *ReviewLedger) StatsByProduct(productID string) (*ReviewStats, error) {
	var stats ReviewStats
	err := l.db.Model(&types.Review{}).
		Select(`
			COALESCE(AVG(rating), 0) AS average_rating,
			COUNT(*) AS total_reviews,
			COALESCE(SUM(CASE WHEN label = 'REAL' THEN 1 ELSE 0 END), 0) AS real_reviews,
			COALESCE(SUM(CASE WHEN label = 'FAKE' THEN 1 ELSE 0 END), 0) AS fake_reviews,
			COALESCE(SUM(CASE WHEN anchored THEN 1 ELSE 0 END), 0) AS anchored_count,
			COALESCE(SUM(CASE WHEN rating = 1 THEN 1 ELSE 0 END), 0) AS rating1,
			COALESCE(SUM(CASE WHEN rating = 2 THEN 1 ELSE 0 END), 0) AS rating2,
			COALESCE(SUM(CASE WHEN rating = 3 THEN 1 ELSE 0 END), 0) AS rating3,
			COALESCE(SUM(CASE WHEN rating = 4 THEN 1 ELSE 0 END), 0) AS rating4,
			COALESCE(SUM(CASE WHEN rating = 5 THEN 1 ELSE 0 END), 0) AS rating5`).
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecordAnchor stores the ledger reference on an already-persisted review.
// Written exactly once; an anchored review is never re-anchored.
func (l *ReviewLedger) RecordAnchor(reviewID uint64, anchorRef string) error {
	res := l.db.Model(&types.Review{}).
		Where("id = ? AND anchored = ?", reviewID, false).
		Updates(map[string]interface{}{
			"anchored":   true,
			"anchor_ref": anchorRef,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
