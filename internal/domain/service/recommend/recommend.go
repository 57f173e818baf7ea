// Package recommend computes entry terms for the next bidder: the minimum
// price to be competitive on each product, a suggested price and the stock
// still up for grabs. Pure function of current state plus one solver call.
package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"auction_sim/internal/domain/entity"
	"auction_sim/pkg/contextx"
	"auction_sim/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type AllocationSolver interface {
	Solve(ctx context.Context, buyers []entity.Buyer, products []entity.Product) (entity.Outcome, error)
}

const (
	// Entry margin over the best standing price; suggestion adds headroom.
	entryMargin       = 0.10
	recommendedMargin = 0.50

	StrategyFirstBuyer  = "first_buyer"
	StrategyCompetitive = "competitive"
)

// ProductAdvice is the per-product recommendation for a prospective buyer.
// EstimatedAllocation is a conservative planning estimate, not a guarantee.
type ProductAdvice struct {
	MinPriceToEnter     float64 `json:"min_price_to_enter"`
	RecommendedPrice    float64 `json:"recommended_price"`
	EstimatedAllocation int64   `json:"estimated_allocation"`
	RemainingStock      int64   `json:"remaining_stock"`
	Strategy            string  `json:"strategy"`
}

type Calculator struct {
	solver AllocationSolver
}

func NewCalculator(solver AllocationSolver) *Calculator {
	return &Calculator{solver: solver}
}

// Recommend never mutates its inputs.
func (c *Calculator) Recommend(
	ctx context.Context,
	buyers []entity.Buyer,
	products []entity.Product,
	newBuyerName string,
) (map[string]ProductAdvice, error) {
	advice := make(map[string]ProductAdvice, len(products))

	if len(buyers) == 0 {
		for _, p := range products {
			advice[p.ID] = firstBuyerAdvice(p)
		}

		return advice, nil
	}

	outcome, err := c.solver.Solve(ctx, buyers, products)
	if err != nil {
		return nil, fmt.Errorf("solver.Solve: %w", err)
	}

	for _, p := range products {
		var prices []float64

		for _, b := range buyers {
			if offer, ok := b.Offers[p.ID]; ok {
				prices = append(prices, offer.CurrentPrice)
			}
		}

		// Nobody bids on this product yet: same terms as for a first buyer.
		if len(prices) == 0 {
			advice[p.ID] = firstBuyerAdvice(p)
			continue
		}

		remaining := p.Stock - outcome.Allocation.AllocatedOf(p.ID)

		advice[p.ID] = ProductAdvice{
			MinPriceToEnter:     lo.Max(prices) + entryMargin,
			RecommendedPrice:    lo.Max(prices) + recommendedMargin,
			EstimatedAllocation: remaining / 2,
			RemainingStock:      remaining,
			Strategy:            StrategyCompetitive,
		}
	}

	logger(ctx).Debug("recommendations calculated",
		slog.String(logx.FieldBuyer, newBuyerName),
		slog.Int("products", len(advice)),
	)

	return advice, nil
}

func firstBuyerAdvice(p entity.Product) ProductAdvice {
	return ProductAdvice{
		MinPriceToEnter:     p.StartingPrice,
		RecommendedPrice:    p.StartingPrice + recommendedMargin,
		EstimatedAllocation: p.Stock,
		RemainingStock:      p.Stock,
		Strategy:            StrategyFirstBuyer,
	}
}
