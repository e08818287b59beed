package domain

import (
	"time"
)

// Transaction is a buyer's commitment to acquire a quantity of energy
// from a listing. Created by the upstream API when a purchase succeeds.
type Transaction struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id,omitempty"`
	KWh       float64   `json:"kwh"`
	TotalCost float64   `json:"total_cost"`
	CreatedAt time.Time `json:"created_at"`
}

// PurchaseSummary aggregates a user's purchase (or sales) history.
type PurchaseSummary struct {
	TotalKWh   float64 `json:"total_kwh"`
	TotalSpent float64 `json:"total_spent"`
	Count      int     `json:"count"`
}
