package entity

import (
	"fmt"

	"auction_sim/internal/domain"
	"auction_sim/pkg/errcodes"
)

// BuyerOffer is one buyer's terms for one product: the allocation must be
// either zero or inside [MOQ, QtyDesired], at CurrentPrice per unit.
// CurrentPrice never exceeds MaxPrice.
type BuyerOffer struct {
	QtyDesired   int64   `json:"qty_desired"`
	MOQ          int64   `json:"moq"`
	CurrentPrice float64 `json:"current_price"`
	MaxPrice     float64 `json:"max_price"`
}

// Buyer identity is the name. Offers may cover only a subset of the catalog.
type Buyer struct {
	Name    string                `json:"name"`
	AutoBid bool                  `json:"auto_bid"`
	Offers  map[string]BuyerOffer `json:"offers"`
}

// Clone returns a deep copy. The auto-bid heuristic works on clones so the
// caller's buyers are never mutated in place.
func (b Buyer) Clone() Buyer {
	offers := make(map[string]BuyerOffer, len(b.Offers))
	for id, offer := range b.Offers {
		offers[id] = offer
	}

	return Buyer{
		Name:    b.Name,
		AutoBid: b.AutoBid,
		Offers:  offers,
	}
}

func CloneBuyers(buyers []Buyer) []Buyer {
	cloned := make([]Buyer, len(buyers))
	for i, b := range buyers {
		cloned[i] = b.Clone()
	}

	return cloned
}

func (b Buyer) Validate(products []Product) error {
	if b.Name == "" {
		return domain.NewError(errcodes.InvalidBuyerName, "buyer name is empty")
	}

	catalog := make(map[string]struct{}, len(products))
	for _, p := range products {
		catalog[p.ID] = struct{}{}
	}

	for id, offer := range b.Offers {
		if _, ok := catalog[id]; !ok {
			return domain.NewError(errcodes.ProductNotFound,
				fmt.Sprintf("buyer %s: unknown product %s", b.Name, id))
		}

		if offer.MOQ < 0 || offer.MOQ > offer.QtyDesired {
			return domain.NewError(errcodes.InvalidOffer,
				fmt.Sprintf("buyer %s, product %s: moq %d outside [0, %d]",
					b.Name, id, offer.MOQ, offer.QtyDesired))
		}

		if offer.CurrentPrice > offer.MaxPrice {
			return domain.NewError(errcodes.PriceAboveCeiling,
				fmt.Sprintf("buyer %s, product %s: current price %.2f above ceiling %.2f",
					b.Name, id, offer.CurrentPrice, offer.MaxPrice))
		}
	}

	return nil
}
