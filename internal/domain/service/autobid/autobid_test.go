package autobid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/allocation"
	"auction_sim/internal/domain/service/autobid"
	"auction_sim/pkg/milp"
)

func testProducts() []entity.Product {
	return []entity.Product{
		{ID: "P1", Name: "Produit A", Stock: 100, VolumeMultiple: 10, SellerMOQ: 30, StartingPrice: 10.0},
	}
}

func competingBuyers() []entity.Buyer {
	return []entity.Buyer{
		{
			Name: "Fixed",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 80, MOQ: 30, CurrentPrice: 10.45, MaxPrice: 10.45},
			},
		},
		{
			Name:    "Auto",
			AutoBid: true,
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 80, MOQ: 30, CurrentPrice: 10, MaxPrice: 15},
			},
		},
	}
}

func newRunner() (*autobid.Runner, *allocation.Solver) {
	solver := allocation.NewSolver(milp.NewBranchBound())
	return autobid.NewRunner(solver), solver
}

func TestRunRaisesPriceInMinimalSteps(t *testing.T) {
	rq := require.New(t)

	runner, solver := newRunner()
	buyers := competingBuyers()
	products := testProducts()

	// Stock 100 cannot serve both 80-unit buyers above the global floor of
	// 80, so the auto bidder must outprice the fixed one. The smallest
	// winning step from 10 against 10.45 is +0.5.
	result, err := runner.Run(context.Background(), buyers, products)
	rq.NoError(err)

	rq.InDelta(10.5, result[1].Offers["P1"].CurrentPrice, 1e-9)

	outcome, err := solver.Solve(context.Background(), result, products)
	rq.NoError(err)
	rq.EqualValues(80, outcome.Allocation.Of("Auto", "P1"))
	rq.EqualValues(0, outcome.Allocation.Of("Fixed", "P1"))
}

func TestRunKeepsSmallestImprovingRaise(t *testing.T) {
	rq := require.New(t)

	runner, solver := newRunner()
	products := testProducts()

	// The first +0.05 step already flips the whole stock to the auto bidder,
	// but the desired 200 units stay out of reach behind the 100-unit stock.
	// The scan must settle on that smallest step instead of walking up the
	// increment list to a raise the buyer never needed.
	buyers := []entity.Buyer{
		{
			Name: "Fixed",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 100, MOQ: 80, CurrentPrice: 10, MaxPrice: 10},
			},
		},
		{
			Name:    "Auto",
			AutoBid: true,
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 200, MOQ: 80, CurrentPrice: 9.99, MaxPrice: 15},
			},
		},
	}

	result, err := runner.Run(context.Background(), buyers, products)
	rq.NoError(err)

	rq.InDelta(10.04, result[1].Offers["P1"].CurrentPrice, 1e-9)

	outcome, err := solver.Solve(context.Background(), result, products)
	rq.NoError(err)
	rq.EqualValues(100, outcome.Allocation.Of("Auto", "P1"))
	rq.EqualValues(0, outcome.Allocation.Of("Fixed", "P1"))
}

func TestRunDoesNotMutateInput(t *testing.T) {
	rq := require.New(t)

	runner, _ := newRunner()
	buyers := competingBuyers()

	_, err := runner.Run(context.Background(), buyers, testProducts())
	rq.NoError(err)

	rq.InDelta(10, buyers[1].Offers["P1"].CurrentPrice, 1e-9, "caller's copy untouched")
}

func TestRunNeverExceedsCeiling(t *testing.T) {
	rq := require.New(t)

	runner, _ := newRunner()
	buyers := competingBuyers()
	// Ceiling below the price needed to win: no raise helps, price stays.
	buyers[1].Offers["P1"] = entity.BuyerOffer{QtyDesired: 80, MOQ: 30, CurrentPrice: 10, MaxPrice: 10.3}

	result, err := runner.Run(context.Background(), buyers, testProducts())
	rq.NoError(err)

	offer := result[1].Offers["P1"]
	rq.LessOrEqual(offer.CurrentPrice, offer.MaxPrice)
	rq.InDelta(10, offer.CurrentPrice, 1e-9)
}

func TestRunNoAutoBidBuyersUnchanged(t *testing.T) {
	rq := require.New(t)

	runner, _ := newRunner()
	buyers := competingBuyers()
	buyers[1].AutoBid = false

	result, err := runner.Run(context.Background(), buyers, testProducts())
	rq.NoError(err)
	rq.Equal(buyers, result)
}

func TestRunStopsAtRoundCap(t *testing.T) {
	rq := require.New(t)

	solver := allocation.NewSolver(milp.NewBranchBound())
	runner := autobid.NewRunner(solver).
		WithMaxRounds(1).
		WithIncrements([]float64{0.05})

	result, err := runner.Run(context.Background(), competingBuyers(), testProducts())
	rq.NoError(err)
	rq.Len(result, 2)

	for _, b := range result {
		for _, offer := range b.Offers {
			rq.LessOrEqual(offer.CurrentPrice, offer.MaxPrice)
		}
	}
}
