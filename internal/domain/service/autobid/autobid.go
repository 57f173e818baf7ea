// Package autobid implements bounded price escalation. Buyers opting in
// have their offered prices raised in small steps until the desired
// quantity is met or no further raise changes the outcome.
package autobid

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"auction_sim/internal/domain/entity"
	"auction_sim/internal/metrics"
	"auction_sim/pkg/contextx"
	"auction_sim/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type AllocationSolver interface {
	Solve(ctx context.Context, buyers []entity.Buyer, products []entity.Product) (entity.Outcome, error)
}

const DefaultMaxRounds = 30

// DefaultIncrements is scanned smallest-first so a buyer never pays more
// than the minimal increase needed to win.
//
//nolint:gochecknoglobals
var DefaultIncrements = []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0}

type Runner struct {
	solver     AllocationSolver
	increments []float64
	maxRounds  int
}

func NewRunner(solver AllocationSolver) *Runner {
	return &Runner{
		solver:     solver,
		increments: DefaultIncrements,
		maxRounds:  DefaultMaxRounds,
	}
}

// WithIncrements overrides the price-step sequence. The sequence must be
// ascending; the scan relies on it.
func (r *Runner) WithIncrements(increments []float64) *Runner {
	if len(increments) > 0 {
		r.increments = increments
	}

	return r
}

func (r *Runner) WithMaxRounds(rounds int) *Runner {
	if rounds > 0 {
		r.maxRounds = rounds
	}

	return r
}

// Run advances auto-bid buyers' prices and returns the new buyer list.
// The input buyers are left untouched; callers must adopt the returned
// value as the new source of truth.
//
// The sweep is intentionally sequential: every trial price is evaluated
// against a full re-solve that already includes earlier accepted raises
// of the same round.
func (r *Runner) Run(ctx context.Context, buyers []entity.Buyer, products []entity.Product) ([]entity.Buyer, error) {
	working := entity.CloneBuyers(buyers)

	for round := 1; round <= r.maxRounds; round++ {
		outcome, err := r.solver.Solve(ctx, working, products)
		if err != nil {
			return nil, fmt.Errorf("solver.Solve: %w", err)
		}

		changed := false

		for i := range working {
			buyer := &working[i]
			if !buyer.AutoBid {
				continue
			}

			for _, p := range products {
				raised, err := r.sweepLine(ctx, working, products, buyer, p, outcome)
				if err != nil {
					return nil, err
				}

				if raised {
					changed = true

					metrics.AutoBidPriceRaises.Inc()
				}
			}
		}

		// Invariant after every round: no price above its ceiling.
		clampToCeiling(working)

		if !changed {
			metrics.AutoBidRounds.Observe(float64(round))
			logger(ctx).Debug("auto-bid reached fixed point", slog.Int(logx.FieldRound, round))

			return working, nil
		}
	}

	// Best effort after the iteration cap, not an error.
	metrics.AutoBidRounds.Observe(float64(r.maxRounds))
	logger(ctx).Debug("auto-bid stopped at round cap", slog.Int(logx.FieldRound, r.maxRounds))

	return working, nil
}

// sweepLine scans the ascending increments for one buyer/product line and
// keeps the smallest price raise that strictly improves that line's
// allocation. Reports whether the price actually changed.
func (r *Runner) sweepLine(
	ctx context.Context,
	working []entity.Buyer,
	products []entity.Product,
	buyer *entity.Buyer,
	product entity.Product,
	outcome entity.Outcome,
) (bool, error) {
	offer, ok := buyer.Offers[product.ID]
	if !ok {
		return false, nil
	}

	if offer.CurrentPrice >= offer.MaxPrice {
		return false, nil
	}

	current := outcome.Allocation.Of(buyer.Name, product.ID)
	if current >= offer.QtyDesired {
		return false, nil
	}

	best := offer.CurrentPrice

	for _, inc := range r.increments {
		test := math.Min(offer.CurrentPrice+inc, offer.MaxPrice)
		if test <= offer.CurrentPrice {
			continue
		}

		// Trial applies to this buyer's this line only; everyone else keeps
		// their current (possibly already-raised-this-round) state.
		buyer.Offers[product.ID] = withPrice(offer, test)

		trial, err := r.solver.Solve(ctx, working, products)
		if err != nil {
			buyer.Offers[product.ID] = offer
			return false, fmt.Errorf("trial solve: %w", err)
		}

		// Smallest strictly improving raise wins. A larger increment could
		// win more units, but only at a price the buyer never needed; the
		// next round escalates further if the line is still short.
		if trial.Allocation.Of(buyer.Name, product.ID) > current {
			best = test
			break
		}
	}

	if best > offer.CurrentPrice {
		buyer.Offers[product.ID] = withPrice(offer, math.Min(best, offer.MaxPrice))
		return true, nil
	}

	buyer.Offers[product.ID] = offer

	return false, nil
}

func withPrice(offer entity.BuyerOffer, price float64) entity.BuyerOffer {
	offer.CurrentPrice = price
	return offer
}

func clampToCeiling(buyers []entity.Buyer) {
	for i := range buyers {
		for id, offer := range buyers[i].Offers {
			if offer.CurrentPrice > offer.MaxPrice {
				buyers[i].Offers[id] = withPrice(offer, offer.MaxPrice)
			}
		}
	}
}
