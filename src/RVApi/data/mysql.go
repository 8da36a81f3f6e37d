package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the schema. Uniqueness of transaction references
// is enforced here, at the storage layer, not in application code.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Product{},
		&types.Purchase{},
		&types.Review{},
		&types.Setting{},
	)
}
