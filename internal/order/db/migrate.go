package db

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

// Migrate creates the marketplace tables for local development. Production
// schema changes go through the golang-migrate runner instead.
func Migrate(db *bun.DB) {
	ctx := context.Background()

	tables := []interface{}{
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Product)(nil),
		(*models.Notification)(nil),
		(*models.SellerStats)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("create table failed: %v", err)
		}
	}

	log.Println("✅ marketplace tables ready")
}
