package recommend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/allocation"
	"auction_sim/internal/domain/service/recommend"
	"auction_sim/pkg/milp"
)

func testProducts() []entity.Product {
	return []entity.Product{
		{ID: "P1", Name: "Produit A", Stock: 210, VolumeMultiple: 10, SellerMOQ: 30, StartingPrice: 10.0},
		{ID: "P2", Name: "Produit B", Stock: 150, VolumeMultiple: 5, SellerMOQ: 20, StartingPrice: 8.0},
	}
}

func newCalculator() *recommend.Calculator {
	return recommend.NewCalculator(allocation.NewSolver(milp.NewBranchBound()))
}

func TestRecommendNoBuyers(t *testing.T) {
	rq := require.New(t)

	advice, err := newCalculator().Recommend(context.Background(), nil, testProducts(), "X")
	rq.NoError(err)

	p1 := advice["P1"]
	rq.InDelta(10.0, p1.MinPriceToEnter, 1e-9)
	rq.InDelta(10.5, p1.RecommendedPrice, 1e-9)
	rq.EqualValues(210, p1.EstimatedAllocation)
	rq.EqualValues(210, p1.RemainingStock)
	rq.Equal(recommend.StrategyFirstBuyer, p1.Strategy)

	p2 := advice["P2"]
	rq.InDelta(8.0, p2.MinPriceToEnter, 1e-9)
	rq.InDelta(8.5, p2.RecommendedPrice, 1e-9)
	rq.EqualValues(150, p2.EstimatedAllocation)
}

func TestRecommendCompetitive(t *testing.T) {
	rq := require.New(t)

	buyers := []entity.Buyer{{
		Name: "Acheteur_1",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 100, MOQ: 30, CurrentPrice: 11, MaxPrice: 15},
		},
	}}

	advice, err := newCalculator().Recommend(context.Background(), buyers, testProducts(), "Acheteur_2")
	rq.NoError(err)

	// The standing buyer takes its full 100 of P1, leaving 110.
	p1 := advice["P1"]
	rq.InDelta(11.1, p1.MinPriceToEnter, 1e-9)
	rq.InDelta(11.5, p1.RecommendedPrice, 1e-9)
	rq.EqualValues(110, p1.RemainingStock)
	rq.EqualValues(55, p1.EstimatedAllocation)
	rq.Equal(recommend.StrategyCompetitive, p1.Strategy)

	// Nobody bids on P2 yet, so the first-buyer terms apply there.
	p2 := advice["P2"]
	rq.InDelta(8.0, p2.MinPriceToEnter, 1e-9)
	rq.Equal(recommend.StrategyFirstBuyer, p2.Strategy)
}
