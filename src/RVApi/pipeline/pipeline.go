// Package pipeline orchestrates the purchase-to-review verification flow:
// purchase verification, review eligibility, authenticity screening and
// conditional anchoring. Each purchase yields at most one accepted review and
// each accepted review is anchored at most once.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/anchor"
	"github.com/veritrust/review-verify/src/RVApi/classifier"
	"github.com/veritrust/review-verify/src/RVApi/data"
	"github.com/veritrust/review-verify/src/RVApi/fingerprint"
	"github.com/veritrust/review-verify/src/RVApi/types"
)

const (
	minReviewLen = 10
	maxReviewLen = 5000
	maxIDLen     = 64

	classifierTimeout = 5 * time.Second
	anchorTimeout     = 30 * time.Second
)

var txRefPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Pipeline owns the transition logic for purchases and reviews. All external
// collaborators are injected; the ledgers enforce uniqueness at the storage
// layer.
type Pipeline struct {
	db         *gorm.DB
	rdb        *redis.Client
	purchases  *data.PurchaseLedger
	reviews    *data.ReviewLedger
	anchors    anchor.Client
	classifier classifier.Client
	sanitizer  *bluemonday.Policy
}

// New wires a pipeline. rdb may be nil; the settlement cache and event
// stream are then skipped.
func New(db *gorm.DB, rdb *redis.Client, anchors anchor.Client, cls classifier.Client) *Pipeline {
	return &Pipeline{
		db:         db,
		rdb:        rdb,
		purchases:  data.NewPurchaseLedger(db),
		reviews:    data.NewReviewLedger(db),
		anchors:    anchors,
		classifier: cls,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// PurchaseReceipt is returned from InitiatePurchase.
type PurchaseReceipt struct {
	Purchase *types.Purchase
	Product  *types.Product
	Warning  string
}

// InitiatePurchase validates the product, records a PENDING purchase with a
// fresh transaction reference and submits the payment record to the anchor
// ledger. A gateway outage leaves the purchase PENDING and is reported as a
// warning; verification can be retried once the ledger catches up.
func (p *Pipeline) InitiatePurchase(ctx context.Context, userID, productID string) (*PurchaseReceipt, error) {
	if err := validateID(userID, "userId"); err != nil {
		return nil, err
	}
	if err := validateID(productID, "productId"); err != nil {
		return nil, err
	}

	product, err := data.FindProduct(p.db, productID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, data.ErrNotFound)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	purchase, err := p.purchases.Create(userID, productID, product.Price)
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	receipt := &PurchaseReceipt{Purchase: purchase, Product: product}

	// The payment record is anchored under the purchase's own transaction
	// reference; VerifyPurchase later queries settlement of that same
	// reference.
	actx, cancel := context.WithTimeout(ctx, anchorTimeout)
	defer cancel()
	if _, err := p.anchors.Submit(actx, purchase.TxRef, map[string]string{
		"kind":    "purchase",
		"user":    userID,
		"product": productID,
	}); err != nil {
		log.Printf("purchase %s: payment anchor failed: %v", purchase.PurchaseID, err)
		receipt.Warning = "payment anchoring unavailable; verification delayed"
	}

	return receipt, nil
}

// VerifyPurchase queries the anchor ledger for settlement of the purchase's
// transaction reference and, on success, transitions the purchase to
// VERIFIED. Idempotent: a VERIFIED purchase is returned unchanged without
// touching the ledger.
func (p *Pipeline) VerifyPurchase(ctx context.Context, txRef string) (*types.Purchase, error) {
	if !txRefPattern.MatchString(txRef) {
		return nil, fmt.Errorf("%w: malformed transaction reference", ErrValidation)
	}

	purchase, err := p.purchases.FindByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	if purchase.Status == types.PurchaseVerified {
		return purchase, nil
	}

	settled := p.rdb != nil && data.IsAnchorConfirmed(ctx, p.rdb, txRef)
	if !settled {
		actx, cancel := context.WithTimeout(ctx, anchorTimeout)
		defer cancel()
		settled, err = p.anchors.QueryConfirmed(actx, txRef)
		if err != nil {
			return nil, fmt.Errorf("query settlement: %w", err)
		}
	}
	if !settled {
		// not settled yet; caller retries
		return purchase, nil
	}

	return p.purchases.Verify(txRef)
}

// Eligibility reports whether a purchase may author a review right now, with
// the reason when it may not. Never mutates anything.
type Eligibility struct {
	Eligible bool
	Reason   string
	Purchase *types.Purchase
	ReviewID *uint64
}

func (p *Pipeline) CheckEligibility(ctx context.Context, txRef string) (*Eligibility, error) {
	purchase, err := p.purchases.FindByTxRef(txRef)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &Eligibility{Eligible: false, Reason: "purchase not found"}, nil
		}
		return nil, err
	}

	if purchase.ReviewSubmitted {
		return &Eligibility{
			Eligible: false,
			Reason:   "review already submitted for this purchase",
			Purchase: purchase,
			ReviewID: purchase.ReviewID,
		}, nil
	}
	if !purchase.Verified || !purchase.ReviewAllowed {
		return &Eligibility{
			Eligible: false,
			Reason:   "purchase not verified or review not allowed",
			Purchase: purchase,
		}, nil
	}
	return &Eligibility{Eligible: true, Purchase: purchase}, nil
}

// SubmitReviewRequest carries a review submission into the pipeline.
type SubmitReviewRequest struct {
	UserID        string
	ProductID     string
	PurchaseTxRef string
	Text          string
	Rating        int
	ReviewerName  string
}

// SubmitReviewResult distinguishes the three user-visible outcomes:
// accepted-and-anchored, accepted-unanchored (flagged fake or anchor
// unavailable) and rejected (an error instead of a result).
type SubmitReviewResult struct {
	Review   *types.Review
	Warnings []string
}

// Anchored reports whether the accepted review made it onto the ledger.
func (r *SubmitReviewResult) Anchored() bool {
	return r.Review != nil && r.Review.Anchored
}

// SubmitReview runs the full intake: validate, gate on a verified purchase,
// fingerprint, classify, persist the review and consume the purchase's one
// review permission in a single transaction, then anchor a REAL review.
func (p *Pipeline) SubmitReview(ctx context.Context, req SubmitReviewRequest) (*SubmitReviewResult, error) {
	text, err := p.validateSubmission(&req)
	if err != nil {
		return nil, err
	}

	purchase, err := p.purchases.FindEligibleForReview(req.UserID, req.ProductID, req.PurchaseTxRef)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrIneligible
		}
		return nil, fmt.Errorf("eligibility lookup: %w", err)
	}

	submittedAt := time.Now()
	txRef := fingerprint.TxRef(req.UserID, req.ProductID, text, submittedAt.UTC().Format(time.RFC3339Nano))

	var warnings []string

	cctx, cancelClassify := context.WithTimeout(ctx, classifierTimeout)
	result, err := p.classifier.Analyze(cctx, text)
	cancelClassify()
	if err != nil {
		log.Printf("review %s: classifier failed, using fallback: %v", txRef, err)
		result = classifier.FallbackResult()
		warnings = append(warnings, "authenticity screening unavailable; substituted fallback score")
	}

	review := &types.Review{
		UserID:          req.UserID,
		ProductID:       req.ProductID,
		Body:            text,
		Rating:          req.Rating,
		Label:           result.Label,
		FakeProbability: result.FakeProbability,
		TxRef:           txRef,
		PurchaseTxRef:   purchase.TxRef,
		PurchaseID:      purchase.ID,
		ReviewerName:    req.ReviewerName,
		CreatedAt:       submittedAt,
	}
	if review.ReviewerName == "" {
		review.ReviewerName = "Anonymous"
	}

	// Persist the review and consume the purchase permission atomically. The
	// conditional update inside ConsumeReviewPermission picks the single
	// winner among concurrent submissions; losers roll back their review row.
	// Anchoring waits until the permission is won so a losing racer never
	// puts its fingerprint on the ledger.
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.reviews.WithTx(tx).Create(review); err != nil {
			return err
		}
		return p.purchases.WithTx(tx).ConsumeReviewPermission(purchase.TxRef, review.ID)
	})
	if err != nil {
		if errors.Is(err, data.ErrAlreadySubmitted) || errors.Is(err, data.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("persist review: %w", err)
	}

	// Anchoring is attempted only for REAL reviews, and its failure degrades
	// the submission instead of rejecting it.
	if result.Label == types.LabelReal {
		actx, cancelAnchor := context.WithTimeout(ctx, anchorTimeout)
		receipt, err := p.anchors.Submit(actx, txRef, map[string]string{
			"kind":      "review",
			"product":   req.ProductID,
			"purchase":  purchase.TxRef,
			"fakeScore": fmt.Sprintf("%d", result.FakeProbability),
		})
		cancelAnchor()
		if err != nil {
			log.Printf("review %s: anchoring failed: %v", txRef, err)
			warnings = append(warnings, "anchoring unavailable; review recorded unanchored")
		} else if err := p.reviews.RecordAnchor(review.ID, receipt.Ref); err != nil {
			log.Printf("review %s: record anchor %s: %v", txRef, receipt.Ref, err)
			warnings = append(warnings, "anchor reference could not be recorded")
		} else {
			review.Anchored = true
			review.AnchorRef = &receipt.Ref
		}
	}

	p.publishReviewEvent(ctx, review)

	return &SubmitReviewResult{Review: review, Warnings: warnings}, nil
}

func (p *Pipeline) publishReviewEvent(ctx context.Context, r *types.Review) {
	if p.rdb == nil {
		return
	}
	anchorRef := ""
	if r.AnchorRef != nil {
		anchorRef = *r.AnchorRef
	}
	err := data.PublishReviewEvent(ctx, p.rdb, map[string]interface{}{
		"review_id":  r.ID,
		"product":    r.ProductID,
		"user":       r.UserID,
		"rating":     r.Rating,
		"label":      r.Label,
		"fake_score": r.FakeProbability,
		"anchored":   r.Anchored,
		"anchor_ref": anchorRef,
		"tx_ref":     r.TxRef,
		"time":       r.CreatedAt.Unix(),
	})
	if err != nil {
		log.Printf("publish review event %d: %v", r.ID, err)
	}
}

func (p *Pipeline) validateSubmission(req *SubmitReviewRequest) (string, error) {
	if err := validateID(req.UserID, "userId"); err != nil {
		return "", err
	}
	if err := validateID(req.ProductID, "productId"); err != nil {
		return "", err
	}
	if !txRefPattern.MatchString(req.PurchaseTxRef) {
		return "", fmt.Errorf("%w: malformed purchase reference", ErrValidation)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return "", fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	text := strings.TrimSpace(p.sanitizer.Sanitize(req.Text))
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: review text is not valid UTF-8", ErrValidation)
	}
	if len(text) < minReviewLen || len(text) > maxReviewLen {
		return "", fmt.Errorf("%w: review text must be between %d and %d characters", ErrValidation, minReviewLen, maxReviewLen)
	}
	return text, nil
}

func validateID(id, field string) error {
	if id == "" || len(id) > maxIDLen {
		return fmt.Errorf("%w: %s must be 1-%d characters", ErrValidation, field, maxIDLen)
	}
	return nil
}
