package webserver

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/data"
	"github.com/veritrust/review-verify/src/RVApi/pipeline"
	"github.com/veritrust/review-verify/src/RVApi/types"
)

type Reviews struct {
	db      *gorm.DB
	pipe    *pipeline.Pipeline
	reviews *data.ReviewLedger
	limiter *RateLimiter
}

func NewReviews(db *gorm.DB, pipe *pipeline.Pipeline, limiter *RateLimiter) Reviews {
	return Reviews{db: db, pipe: pipe, reviews: data.NewReviewLedger(db), limiter: limiter}
}

// POST /v1/reviews
func (h Reviews) Submit(c *gin.Context) {
	var req struct {
		UserID        string `json:"userId" binding:"required,max=64"`
		ProductID     string `json:"productId" binding:"required,max=64"`
		PurchaseTxRef string `json:"purchaseRef" binding:"required"`
		Text          string `json:"text" binding:"required"`
		Rating        int    `json:"rating" binding:"required"`
		ReviewerName  string `json:"reviewerName" binding:"max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !h.limiter.CanUse(req.UserID) {
		wait := h.limiter.TimeUntilNext(req.UserID)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"err": fmt.Sprintf("please wait %d seconds before submitting again", int(wait.Seconds())),
		})
		return
	}

	result, err := h.pipe.SubmitReview(c.Request.Context(), pipeline.SubmitReviewRequest{
		UserID:        req.UserID,
		ProductID:     req.ProductID,
		PurchaseTxRef: req.PurchaseTxRef,
		Text:          req.Text,
		Rating:        req.Rating,
		ReviewerName:  req.ReviewerName,
	})
	if err != nil {
		status, msg := mapPipelineError(err)
		c.JSON(status, gin.H{"err": msg})
		return
	}

	review := result.Review
	resp := gin.H{
		"reviewId":        review.ID,
		"txRef":           review.TxRef,
		"label":           review.Label,
		"fakeProbability": review.FakeProbability,
		"anchored":        review.Anchored,
		"createdAt":       review.CreatedAt,
	}
	if review.AnchorRef != nil {
		resp["anchorRef"] = *review.AnchorRef
	}
	if len(result.Warnings) > 0 {
		resp["warnings"] = result.Warnings
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /v1/reviews/eligibility/:ref
func (h Reviews) Eligibility(c *gin.Context) {
	elig, err := h.pipe.CheckEligibility(c.Request.Context(), c.Param("ref"))
	if err != nil {
		status, msg := mapPipelineError(err)
		c.JSON(status, gin.H{"err": msg})
		return
	}

	resp := gin.H{"eligible": elig.Eligible}
	if elig.Reason != "" {
		resp["reason"] = elig.Reason
	}
	if elig.ReviewID != nil {
		resp["reviewId"] = *elig.ReviewID
	}
	if elig.Eligible && elig.Purchase != nil {
		resp["purchase"] = gin.H{
			"purchaseId":   elig.Purchase.PurchaseID,
			"txRef":        elig.Purchase.TxRef,
			"userId":       elig.Purchase.UserID,
			"productId":    elig.Purchase.ProductID,
			"purchaseDate": elig.Purchase.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GET /v1/reviews/product/:productId?page=&limit=&sort=&filter=
func (h Reviews) ListByProduct(c *gin.Context) {
	productID := c.Param("productId")
	page, limit := pagination(c)
	sort := c.DefaultQuery("sort", "newest")
	filter := c.DefaultQuery("filter", "all")

	reviews, total, err := h.reviews.ListByProduct(productID, page, limit, sort, filter)
	if err != nil {
		log.Printf("list reviews for %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	stats, err := h.reviews.StatsByProduct(productID)
	if err != nil {
		log.Printf("review stats for %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	out := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewJSON(&r))
	}

	totalPages := int64(math.Ceil(float64(total) / float64(limit)))
	c.JSON(http.StatusOK, gin.H{
		"reviews": out,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"totalPages":  totalPages,
			"hasNextPage": int64(page) < totalPages,
			"hasPrevPage": page > 1,
		},
		"statistics": statsJSON(stats),
	})
}

// GET /v1/reviews/tx/:ref
func (h Reviews) GetByTxRef(c *gin.Context) {
	review, err := h.reviews.FindByTxRef(c.Param("ref"))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "review not found"})
			return
		}
		log.Printf("review lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, reviewJSON(review))
}

// GET /v1/reviews/user/:userId?page=&limit=
func (h Reviews) ListByUser(c *gin.Context) {
	page, limit := pagination(c)

	reviews, total, err := h.reviews.ListByUser(c.Param("userId"), page, limit)
	if err != nil {
		log.Printf("user reviews lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	out := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewJSON(&r))
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": out,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int64(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func reviewJSON(r *types.Review) gin.H {
	out := gin.H{
		"id":              r.ID,
		"productId":       r.ProductID,
		"userId":          r.UserID,
		"text":            r.Body,
		"rating":          r.Rating,
		"label":           r.Label,
		"fakeProbability": r.FakeProbability,
		"txRef":           r.TxRef,
		"purchaseRef":     r.PurchaseTxRef,
		"reviewerName":    r.ReviewerName,
		"anchored":        r.Anchored,
		"createdAt":       r.CreatedAt,
	}
	if r.AnchorRef != nil {
		out["anchorRef"] = *r.AnchorRef
	}
	return out
}

func statsJSON(s *data.ReviewStats) gin.H {
	pct := func(n int64) int {
		if s.TotalReviews == 0 {
			return 0
		}
		return int(math.Round(float64(n) / float64(s.TotalReviews) * 100))
	}
	return gin.H{
		"averageRating": math.Round(s.AverageRating*10) / 10,
		"totalReviews":  s.TotalReviews,
		"realReviews":   s.RealReviews,
		"fakeReviews":   s.FakeReviews,
		"anchoredCount": s.AnchoredCount,
		"realPercentage": pct(s.RealReviews),
		"fakePercentage": pct(s.FakeReviews),
		"ratingCounts": gin.H{
			"1": s.Rating1, "2": s.Rating2, "3": s.Rating3, "4": s.Rating4, "5": s.Rating5,
		},
		"ratingPercentages": gin.H{
			"1": pct(s.Rating1), "2": pct(s.Rating2), "3": pct(s.Rating3), "4": pct(s.Rating4), "5": pct(s.Rating5),
		},
	}
}
