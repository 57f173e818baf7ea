package server

import (
	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/recommend"
	"auction_sim/internal/infrastructure/session"
	"auction_sim/pkg/rest"
)

func newRESTProducts(products []entity.Product) []rest.Product {
	out := make([]rest.Product, len(products))
	for i, p := range products {
		out[i] = rest.Product{
			ID:             p.ID,
			Name:           p.Name,
			Stock:          p.Stock,
			VolumeMultiple: p.VolumeMultiple,
			SellerMOQ:      p.SellerMOQ,
			StartingPrice:  p.StartingPrice,
		}
	}

	return out
}

func newRESTBuyers(buyers []entity.Buyer) []rest.Buyer {
	out := make([]rest.Buyer, len(buyers))
	for i, b := range buyers {
		offers := make(map[string]rest.Offer, len(b.Offers))
		for id, o := range b.Offers {
			offers[id] = rest.Offer{
				QtyDesired:   o.QtyDesired,
				MOQ:          o.MOQ,
				CurrentPrice: o.CurrentPrice,
				MaxPrice:     o.MaxPrice,
			}
		}

		out[i] = rest.Buyer{
			Name:    b.Name,
			AutoBid: b.AutoBid,
			Offers:  offers,
		}
	}

	return out
}

func newDomainBuyer(name string, terms rest.BuyerTerms) entity.Buyer {
	offers := make(map[string]entity.BuyerOffer, len(terms.Offers))
	for id, o := range terms.Offers {
		offers[id] = entity.BuyerOffer{
			QtyDesired:   o.QtyDesired,
			MOQ:          o.MOQ,
			CurrentPrice: o.CurrentPrice,
			MaxPrice:     o.MaxPrice,
		}
	}

	return entity.Buyer{
		Name:    name,
		AutoBid: terms.AutoBid,
		Offers:  offers,
	}
}

// newRESTState reports the latest solve when one exists. A fresh auction
// has no allocation yet.
func newRESTState(auction *session.Auction) rest.AuctionState {
	state := rest.AuctionState{
		ID:     auction.ID,
		Buyers: newRESTBuyers(auction.BuyersList()),
		Status: string(entity.SolveStatusEmpty),
	}

	if len(auction.History) > 0 {
		last := auction.History[len(auction.History)-1]
		state.Status = string(last.Status)
		state.Allocation = last.Allocation
		state.TotalRevenue = last.TotalRevenue
	}

	return state
}

func newRESTHistory(history []session.Snapshot) []rest.HistoryEntry {
	out := make([]rest.HistoryEntry, len(history))
	for i, snapshot := range history {
		out[i] = rest.HistoryEntry{
			Recorded:     snapshot.Recorded,
			Buyers:       newRESTBuyers(snapshot.Buyers),
			Status:       string(snapshot.Status),
			Allocation:   snapshot.Allocation,
			TotalRevenue: snapshot.TotalRevenue,
		}
	}

	return out
}

func newRESTRecommendations(buyer string, advice map[string]recommend.ProductAdvice) rest.Recommendations {
	products := make(map[string]rest.Recommendation, len(advice))
	for id, a := range advice {
		products[id] = rest.Recommendation{
			MinPriceToEnter:     a.MinPriceToEnter,
			RecommendedPrice:    a.RecommendedPrice,
			EstimatedAllocation: a.EstimatedAllocation,
			RemainingStock:      a.RemainingStock,
			Strategy:            a.Strategy,
		}
	}

	return rest.Recommendations{
		Buyer:    buyer,
		Products: products,
	}
}
