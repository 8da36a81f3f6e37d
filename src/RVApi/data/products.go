package data

import (
	"errors"

	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

// FindProduct validates a purchase target against the catalog.
func FindProduct(db *gorm.DB, productID string) (*types.Product, error) {
	var p types.Product
	if err := db.First(&p, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the full catalog.
func ListProducts(db *gorm.DB) ([]types.Product, error) {
	var products []types.Product
	if err := db.Order("product_id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SeedProducts inserts the demo catalog if it is empty.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&types.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []types.Product{
		{ProductID: "P001", Name: "Sony WH-1000XM5", Price: 399, Category: "audio"},
		{ProductID: "P002", Name: "Apple Watch Ultra", Price: 799, Category: "wearables"},
		{ProductID: "P003", Name: "MacBook Pro M3", Price: 2499, Category: "computers"},
		{ProductID: "P004", Name: "Samsung S24 Ultra", Price: 1299, Category: "phones"},
	}
	return db.Create(&products).Error
}
