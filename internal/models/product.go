package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID         string    `bun:"product_id,pk" json:"product_id"`
	SellerID          string    `bun:"seller_id,notnull" json:"seller_id"`
	Name              string    `bun:"name,notnull" json:"name"`
	Category          string    `bun:"category" json:"category"`
	UnitPrice         float64   `bun:"unit_price" json:"unit_price"`
	UnitType          string    `bun:"unit_type" json:"unit_type"`
	AvailableQuantity int       `bun:"available_quantity,notnull" json:"available_quantity"`
	OrdersCount       int       `bun:"orders_count,notnull" json:"orders_count"`
	CreatedAt         time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// SellerStats holds a seller's lifetime aggregates map, bumped when orders
// complete or get rated.
type SellerStats struct {
	bun.BaseModel `bun:"table:seller_stats"`

	SellerID    string  `bun:"seller_id,pk" json:"seller_id"`
	TotalSales  float64 `bun:"total_sales" json:"total_sales"`
	TotalOrders int     `bun:"total_orders" json:"total_orders"`
	RatingSum   int     `bun:"rating_sum" json:"-"`
	RatingCount int     `bun:"rating_count" json:"rating_count"`
}

// AverageRating returns 0 when the seller has no ratings yet.
func (s *SellerStats) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}
