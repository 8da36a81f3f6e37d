package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/data"
)

type Products struct {
	db *gorm.DB
}

// GET /v1/products
func (h Products) List(c *gin.Context) {
	products, err := data.ListProducts(h.db)
	if err != nil {
		log.Printf("list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "storage unavailable"})
		return
	}

	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, gin.H{
			"productId": p.ProductID,
			"name":      p.Name,
			"price":     p.Price,
			"category":  p.Category,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}
