package allocation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"auction_sim/internal/domain"
	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/allocation"
	"auction_sim/pkg/errcodes"
	"auction_sim/pkg/milp"
	"auction_sim/pkg/tests"
)

func testProducts() []entity.Product {
	return []entity.Product{
		{ID: "P1", Name: "Produit A", Stock: 210, VolumeMultiple: 10, SellerMOQ: 30, StartingPrice: 10.0},
		{ID: "P2", Name: "Produit B", Stock: 150, VolumeMultiple: 5, SellerMOQ: 20, StartingPrice: 8.0},
	}
}

func newSolver() *allocation.Solver {
	return allocation.NewSolver(milp.NewBranchBound())
}

func TestSolveEmptyBuyers(t *testing.T) {
	rq := require.New(t)

	outcome, err := newSolver().Solve(context.Background(), nil, testProducts())
	rq.NoError(err)
	rq.Equal(entity.SolveStatusEmpty, outcome.Status)
	rq.Empty(outcome.Allocation)
	rq.Zero(outcome.TotalRevenue)
}

func TestSolveSingleBuyerBelowGlobalFloor(t *testing.T) {
	rq := require.New(t)

	// 50 desired units in total < global MOQ of 80: everything collapses.
	buyers := []entity.Buyer{{
		Name: "Acheteur_1",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 15},
		},
	}}

	outcome, err := newSolver().Solve(context.Background(), buyers, testProducts())
	rq.NoError(err)
	rq.Equal(entity.SolveStatusSolved, outcome.Status)
	rq.EqualValues(0, outcome.Allocation.Of("Acheteur_1", "P1"))
	rq.Zero(outcome.TotalRevenue)
}

func TestSolveSingleBuyerAboveGlobalFloor(t *testing.T) {
	rq := require.New(t)

	buyers := []entity.Buyer{{
		Name: "Acheteur_1",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 15},
			"P2": {QtyDesired: 40, MOQ: 20, CurrentPrice: 9, MaxPrice: 12},
		},
	}}

	outcome, err := newSolver().Solve(context.Background(), buyers, testProducts())
	rq.NoError(err)
	rq.Equal(entity.SolveStatusSolved, outcome.Status)
	rq.EqualValues(50, outcome.Allocation.Of("Acheteur_1", "P1"))
	rq.EqualValues(40, outcome.Allocation.Of("Acheteur_1", "P2"))
	rq.InDelta(50*11+40*9, outcome.TotalRevenue, 1e-6)
}

func TestSolveTwoCompetingBuyers(t *testing.T) {
	rq := require.New(t)

	// A pays more per unit, so A's full 100 is served first and B fills the
	// remaining 110 of the 210 stock.
	buyers := []entity.Buyer{
		{
			Name: "A",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 100, MOQ: 30, CurrentPrice: 12, MaxPrice: 20},
			},
		},
		{
			Name: "B",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 150, MOQ: 30, CurrentPrice: 10, MaxPrice: 20},
			},
		},
	}

	outcome, err := newSolver().Solve(context.Background(), buyers, testProducts())
	rq.NoError(err)
	rq.Equal(entity.SolveStatusSolved, outcome.Status)
	rq.EqualValues(100, outcome.Allocation.Of("A", "P1"))
	rq.EqualValues(110, outcome.Allocation.Of("B", "P1"))
	rq.InDelta(100*12+110*10, outcome.TotalRevenue, 1e-6)
}

// Repeated solves of a feasible two-buyer model must come back solved
// every time; the heuristic leans on back-to-back trial solves and a
// single spurious infeasible poisons its comparisons.
func TestSolveFeasibleModelNeverInfeasible(t *testing.T) {
	rq := require.New(t)

	buyers := []entity.Buyer{
		{
			Name: "A",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 100, MOQ: 80, CurrentPrice: 10, MaxPrice: 10},
			},
		},
		{
			Name: "B",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 200, MOQ: 80, CurrentPrice: 9.99, MaxPrice: 15},
			},
		},
	}

	solver := newSolver()

	for i := 0; i < 25; i++ {
		outcome, err := solver.Solve(context.Background(), buyers, testProducts())
		rq.NoError(err)
		rq.Equal(entity.SolveStatusSolved, outcome.Status)

		buyers[1].Offers["P1"] = entity.BuyerOffer{
			QtyDesired: 200, MOQ: 80, CurrentPrice: 9.99 + 0.05*float64(i), MaxPrice: 15,
		}
	}
}

func TestSolveIdempotent(t *testing.T) {
	rq := require.New(t)

	buyers := []entity.Buyer{
		{
			Name: "A",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 100, MOQ: 30, CurrentPrice: 12, MaxPrice: 20},
				"P2": {QtyDesired: 60, MOQ: 20, CurrentPrice: 8.5, MaxPrice: 11},
			},
		},
		{
			Name: "B",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 150, MOQ: 30, CurrentPrice: 10, MaxPrice: 20},
			},
		},
	}

	solver := newSolver()

	first, err := solver.Solve(context.Background(), buyers, testProducts())
	rq.NoError(err)

	second, err := solver.Solve(context.Background(), buyers, testProducts())
	rq.NoError(err)

	rq.Equal(first, second)
}

func TestSolveCancelledContextIsInfeasible(t *testing.T) {
	rq := require.New(t)

	buyers := []entity.Buyer{{
		Name: "A",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 100, MOQ: 30, CurrentPrice: 12, MaxPrice: 20},
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := newSolver().Solve(ctx, buyers, testProducts())
	rq.NoError(err)
	rq.Equal(entity.SolveStatusInfeasible, outcome.Status)
	rq.EqualValues(0, outcome.Allocation.Of("A", "P1"))
	rq.Zero(outcome.TotalRevenue)
}

func TestSolveInputValidation(t *testing.T) {
	products := testProducts()

	testCases := []struct {
		name     string
		buyers   []entity.Buyer
		products []entity.Product
		code     string
	}{
		{
			name:     "Zero volume multiple",
			products: []entity.Product{{ID: "P1", Stock: 100, VolumeMultiple: 0}},
			code:     string(errcodes.InvalidVolumeMultiple),
		},
		{
			name:     "Negative stock",
			products: []entity.Product{{ID: "P1", Stock: -5, VolumeMultiple: 10}},
			code:     string(errcodes.InvalidProduct),
		},
		{
			name:     "Price above ceiling",
			products: products,
			buyers: []entity.Buyer{{
				Name: "A",
				Offers: map[string]entity.BuyerOffer{
					"P1": {QtyDesired: 100, MOQ: 30, CurrentPrice: 16, MaxPrice: 15},
				},
			}},
			code: string(errcodes.PriceAboveCeiling),
		},
		{
			name:     "MOQ above desired quantity",
			products: products,
			buyers: []entity.Buyer{{
				Name: "A",
				Offers: map[string]entity.BuyerOffer{
					"P1": {QtyDesired: 40, MOQ: 50, CurrentPrice: 10, MaxPrice: 15},
				},
			}},
			code: string(errcodes.InvalidOffer),
		},
		{
			name:     "Unknown product in offer",
			products: products,
			buyers: []entity.Buyer{{
				Name: "A",
				Offers: map[string]entity.BuyerOffer{
					"P9": {QtyDesired: 100, MOQ: 30, CurrentPrice: 10, MaxPrice: 15},
				},
			}},
			code: string(errcodes.ProductNotFound),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			_, err := newSolver().Solve(context.Background(), tc.buyers, tc.products)
			rq.Error(err)

			code, ok := domain.GetCode(err)
			rq.True(ok)
			rq.Equal(tc.code, string(code))
		})
	}
}

// TestSolveInvariants hammers the solver with randomized buyer sets and
// checks the allocation invariants that must hold for any input.
func TestSolveInvariants(t *testing.T) {
	rq := require.New(t)

	random := tests.NewRandomizer()
	products := testProducts()
	solver := newSolver()

	for iter := 0; iter < 20; iter++ {
		var buyers []entity.Buyer

		for i := 0; i < 3; i++ {
			offers := make(map[string]entity.BuyerOffer)

			for _, p := range products {
				if random.Bool() && i > 0 {
					continue // subset of the catalog is fine
				}

				qty := (1 + random.Int63n(p.Stock/p.VolumeMultiple)) * p.VolumeMultiple
				price := p.StartingPrice + random.Float64()*3

				offers[p.ID] = entity.BuyerOffer{
					QtyDesired:   qty,
					MOQ:          p.SellerMOQ,
					CurrentPrice: price,
					MaxPrice:     price + 5,
				}

				if offers[p.ID].MOQ > qty {
					offers[p.ID] = entity.BuyerOffer{
						QtyDesired: qty, MOQ: qty, CurrentPrice: price, MaxPrice: price + 5,
					}
				}
			}

			buyers = append(buyers, entity.Buyer{
				Name:   string(rune('A' + i)),
				Offers: offers,
			})
		}

		outcome, err := solver.Solve(context.Background(), buyers, products)
		rq.NoError(err)

		var revenue float64

		for _, p := range products {
			rq.LessOrEqual(outcome.Allocation.AllocatedOf(p.ID), p.Stock, "capacity")
		}

		for _, b := range buyers {
			total := outcome.Allocation.TotalFor(b.Name)
			if total != 0 {
				rq.GreaterOrEqual(total, solver.GlobalMOQ(), "global floor")
			}

			for _, p := range products {
				offer, ok := b.Offers[p.ID]
				if !ok {
					continue
				}

				qty := outcome.Allocation.Of(b.Name, p.ID)
				rq.Zero(qty%p.VolumeMultiple, "volume multiple")

				if qty != 0 {
					rq.GreaterOrEqual(qty, offer.MOQ, "band lower bound")
					rq.LessOrEqual(qty, offer.QtyDesired, "band upper bound")
				}

				revenue += float64(qty) * offer.CurrentPrice
			}
		}

		rq.InDelta(revenue, outcome.TotalRevenue, 1e-6, "revenue consistency")
	}
}
