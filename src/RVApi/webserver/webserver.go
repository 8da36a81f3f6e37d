package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/config"
	"github.com/veritrust/review-verify/src/RVApi/pipeline"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client, pipe *pipeline.Pipeline) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), cors.Default())
	attachRoutes(g, db, rdb, pipe)
	return g
}

func attachRoutes(g *gin.Engine, db *gorm.DB, rdb *redis.Client, pipe *pipeline.Pipeline) {
	limiter := NewRateLimiter(30 * time.Second)
	limiter.StartCleanup(5 * time.Minute)

	purchases := NewPurchases(db, pipe)
	reviews := NewReviews(db, pipe, limiter)
	products := Products{db: db}

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.Group("/v1")
	{
		v1.POST("/purchases", purchases.Create)
		v1.POST("/purchases/:ref/verify", purchases.Verify)
		v1.GET("/purchases/status", purchases.Status)
		v1.GET("/purchases/user/:userId", purchases.ListByUser)

		v1.POST("/reviews", reviews.Submit)
		v1.GET("/reviews/eligibility/:ref", reviews.Eligibility)
		v1.GET("/reviews/product/:productId", reviews.ListByProduct)
		v1.GET("/reviews/tx/:ref", reviews.GetByTxRef)
		v1.GET("/reviews/user/:userId", reviews.ListByUser)

		v1.GET("/products", products.List)
	}
}
