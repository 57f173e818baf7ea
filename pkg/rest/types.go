// Package rest holds the wire models of the HTTP API.
package rest

import "time"

type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Stock          int64   `json:"stock"`
	VolumeMultiple int64   `json:"volume_multiple"`
	SellerMOQ      int64   `json:"seller_moq"`
	StartingPrice  float64 `json:"starting_price"`
}

type Offer struct {
	QtyDesired   int64   `json:"qty_desired" validate:"gte=0"`
	MOQ          int64   `json:"moq" validate:"gte=0"`
	CurrentPrice float64 `json:"current_price" validate:"gte=0"`
	MaxPrice     float64 `json:"max_price" validate:"gte=0"`
}

type Buyer struct {
	Name    string           `json:"name"`
	AutoBid bool             `json:"auto_bid"`
	Offers  map[string]Offer `json:"offers"`
}

// BuyerTerms is the body of a buyer upsert; the name comes from the path.
type BuyerTerms struct {
	AutoBid bool             `json:"auto_bid"`
	Offers  map[string]Offer `json:"offers" validate:"required,dive"`
}

type Auction struct {
	ID       string    `json:"id"`
	Products []Product `json:"products"`
}

type AuctionState struct {
	ID           string                      `json:"id"`
	Buyers       []Buyer                     `json:"buyers"`
	Status       string                      `json:"status"`
	Allocation   map[string]map[string]int64 `json:"allocation"`
	TotalRevenue float64                     `json:"total_revenue"`
}

type AutoBidResult struct {
	Buyers       []Buyer                     `json:"buyers"`
	Status       string                      `json:"status"`
	Allocation   map[string]map[string]int64 `json:"allocation"`
	TotalRevenue float64                     `json:"total_revenue"`
}

type AutoBidEnqueued struct {
	TaskID string `json:"task_id"`
}

type Recommendation struct {
	MinPriceToEnter     float64 `json:"min_price_to_enter"`
	RecommendedPrice    float64 `json:"recommended_price"`
	EstimatedAllocation int64   `json:"estimated_allocation"`
	RemainingStock      int64   `json:"remaining_stock"`
	Strategy            string  `json:"strategy"`
}

type Recommendations struct {
	Buyer    string                    `json:"buyer"`
	Products map[string]Recommendation `json:"products"`
}

type HistoryEntry struct {
	Recorded     time.Time                   `json:"recorded"`
	Buyers       []Buyer                     `json:"buyers"`
	Status       string                      `json:"status"`
	Allocation   map[string]map[string]int64 `json:"allocation"`
	TotalRevenue float64                     `json:"total_revenue"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
