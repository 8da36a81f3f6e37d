package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/data"
	"github.com/veritrust/review-verify/src/RVApi/pipeline"
	"github.com/veritrust/review-verify/src/RVApi/types"
)

type Purchases struct {
	db        *gorm.DB
	pipe      *pipeline.Pipeline
	purchases *data.PurchaseLedger
}

func NewPurchases(db *gorm.DB, pipe *pipeline.Pipeline) Purchases {
	return Purchases{db: db, pipe: pipe, purchases: data.NewPurchaseLedger(db)}
}

// POST /v1/purchases
func (h Purchases) Create(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId" binding:"required,max=64"`
		ProductID string `json:"productId" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	receipt, err := h.pipe.InitiatePurchase(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		status, msg := mapPipelineError(err)
		c.JSON(status, gin.H{"err": msg})
		return
	}

	resp := gin.H{
		"purchaseId": receipt.Purchase.PurchaseID,
		"txRef":      receipt.Purchase.TxRef,
		"product":    receipt.Product.Name,
		"amount":     receipt.Purchase.Amount,
		"status":     receipt.Purchase.Status,
	}
	if receipt.Warning != "" {
		resp["warning"] = receipt.Warning
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /v1/purchases/:ref/verify
func (h Purchases) Verify(c *gin.Context) {
	ref := c.Param("ref")

	purchase, err := h.pipe.VerifyPurchase(c.Request.Context(), ref)
	if err != nil {
		status, msg := mapPipelineError(err)
		c.JSON(status, gin.H{"err": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"txRef":         purchase.TxRef,
		"verified":      purchase.Verified,
		"reviewAllowed": purchase.ReviewAllowed,
		"status":        purchase.Status,
	})
}

// GET /v1/purchases/status?userId=&productId=
func (h Purchases) Status(c *gin.Context) {
	userID := c.Query("userId")
	productID := c.Query("productId")
	if userID == "" || productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "userId and productId are required"})
		return
	}

	purchase, err := h.purchases.LatestReviewable(userID, productID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"canReview": false})
			return
		}
		log.Printf("purchase status lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"canReview":    true,
		"purchaseId":   purchase.PurchaseID,
		"txRef":        purchase.TxRef,
		"productId":    purchase.ProductID,
		"purchaseDate": purchase.CreatedAt,
	})
}

// GET /v1/purchases/user/:userId
func (h Purchases) ListByUser(c *gin.Context) {
	purchases, err := h.purchases.ListByUser(c.Param("userId"))
	if err != nil {
		log.Printf("purchase history lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	out := make([]gin.H, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseJSON(&p))
	}
	c.JSON(http.StatusOK, gin.H{"purchases": out})
}

func purchaseJSON(p *types.Purchase) gin.H {
	return gin.H{
		"purchaseId":      p.PurchaseID,
		"txRef":           p.TxRef,
		"productId":       p.ProductID,
		"amount":          p.Amount,
		"status":          p.Status,
		"verified":        p.Verified,
		"reviewAllowed":   p.ReviewAllowed,
		"reviewSubmitted": p.ReviewSubmitted,
		"createdAt":       p.CreatedAt,
	}
}
