// Package allocation turns the current buyer/product state into a MILP
// instance, hands it to the optimization backend and post-processes the raw
// solution into a rounded, invariant-respecting allocation with its revenue.
package allocation

import (
	"context"
	"fmt"
	"math"
	"time"

	"auction_sim/internal/domain/entity"
	"auction_sim/internal/metrics"
	"auction_sim/pkg/contextx"
	"auction_sim/pkg/logx"
	"auction_sim/pkg/milp"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Backend is the pluggable MILP solver the allocation model runs on.
type Backend interface {
	Solve(ctx context.Context, m *milp.Model) (milp.Solution, error)
}

const DefaultSellerGlobalMOQ int64 = 80

type Solver struct {
	backend   Backend
	globalMOQ int64
	timeout   time.Duration
}

func NewSolver(backend Backend) *Solver {
	return &Solver{
		backend:   backend,
		globalMOQ: DefaultSellerGlobalMOQ,
	}
}

// WithGlobalMOQ sets the minimum total quantity a buyer must clear, summed
// across every product, to be allocated anything at all.
func (s *Solver) WithGlobalMOQ(moq int64) *Solver {
	s.globalMOQ = moq
	return s
}

// WithSolveTimeout bounds one backend invocation. A timed-out solve is
// treated the same as an infeasible one.
func (s *Solver) WithSolveTimeout(d time.Duration) *Solver {
	s.timeout = d
	return s
}

func (s *Solver) GlobalMOQ() int64 {
	return s.globalMOQ
}

// line is one (buyer, product) pair of the model, kept in deterministic
// catalog order so that equal-revenue ties always resolve the same way.
type line struct {
	buyer   int
	product entity.Product
	offer   entity.BuyerOffer
	x       milp.Var
	n       milp.Var
	y       milp.Var
}

// Solve computes the revenue-maximal allocation for the given state.
// Inputs are never mutated. Validation failures are returned as domain
// errors; backend failures degrade to an all-zero infeasible outcome.
func (s *Solver) Solve(ctx context.Context, buyers []entity.Buyer, products []entity.Product) (entity.Outcome, error) {
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return entity.Outcome{}, fmt.Errorf("product %s: %w", p.ID, err)
		}
	}

	for _, b := range buyers {
		if err := b.Validate(products); err != nil {
			return entity.Outcome{}, fmt.Errorf("buyer %s: %w", b.Name, err)
		}
	}

	if len(buyers) == 0 {
		return entity.Outcome{
			Status:       entity.SolveStatusEmpty,
			Allocation:   entity.Allocation{},
			TotalRevenue: 0,
		}, nil
	}

	model, lines := s.buildModel(buyers, products)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()

	sol, err := s.backend.Solve(ctx, model)
	if err != nil {
		// Backend failure is recovered locally: every buyer loses.
		logger(ctx).Error("allocation backend failed", logx.Error(err))
		sol = milp.Solution{Status: milp.StatusInfeasible}
	}

	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolvesTotal.WithLabelValues(sol.Status.String()).Inc()

	return s.outcome(buyers, sol, lines), nil
}

func (s *Solver) buildModel(buyers []entity.Buyer, products []entity.Product) (*milp.Model, []line) {
	model := milp.NewModel()

	bigM := int64(1)
	for _, p := range products {
		if p.Stock > bigM {
			bigM = p.Stock
		}
	}

	z := make([]milp.Var, len(buyers))
	for i, b := range buyers {
		z[i] = model.AddVar("z_"+b.Name, milp.Binary, 0, 1)
	}

	var lines []line

	// Catalog order, not map order: keeps the model, and with it the
	// tie-break between equal-revenue solutions, deterministic.
	for i, b := range buyers {
		for _, p := range products {
			offer, ok := b.Offers[p.ID]
			if !ok {
				continue
			}

			ub := offer.QtyDesired
			if p.Stock < ub {
				ub = p.Stock
			}

			// x carries no explicit upper bound: the band constraint and the
			// capacity row below cap it already, and duplicating them as a
			// bound row degenerates the relaxation.
			ln := line{
				buyer:   i,
				product: p,
				offer:   offer,
				x:       model.AddVar(fmt.Sprintf("x_%s_%s", b.Name, p.ID), milp.Continuous, 0, milp.Unbounded()),
				n:       model.AddVar(fmt.Sprintf("n_%s_%s", b.Name, p.ID), milp.Integer, 0, math.Floor(float64(ub)/float64(p.VolumeMultiple))),
				y:       model.AddVar(fmt.Sprintf("y_%s_%s", b.Name, p.ID), milp.Binary, 0, 1),
			}

			model.SetObjectiveCoef(ln.x, offer.CurrentPrice)

			// x = volume_multiple * n: the packaging invariant holds exactly,
			// not via post-hoc rounding.
			model.AddConstraint([]milp.Term{
				{Var: ln.x, Coef: 1},
				{Var: ln.n, Coef: -float64(p.VolumeMultiple)},
			}, milp.Equal, 0)

			// Zero or inside the requested band.
			model.AddConstraint([]milp.Term{
				{Var: ln.x, Coef: 1},
				{Var: ln.y, Coef: -float64(offer.MOQ)},
			}, milp.GreaterEq, 0)
			model.AddConstraint([]milp.Term{
				{Var: ln.x, Coef: 1},
				{Var: ln.y, Coef: -float64(offer.QtyDesired)},
			}, milp.LessEq, 0)

			// No per-product win without global participation.
			model.AddConstraint([]milp.Term{
				{Var: ln.y, Coef: 1},
				{Var: z[i], Coef: -1},
			}, milp.LessEq, 0)
			model.AddConstraint([]milp.Term{
				{Var: ln.x, Coef: 1},
				{Var: z[i], Coef: -float64(bigM)},
			}, milp.LessEq, 0)

			lines = append(lines, ln)
		}
	}

	for _, p := range products {
		var terms []milp.Term

		for _, ln := range lines {
			if ln.product.ID == p.ID {
				terms = append(terms, milp.Term{Var: ln.x, Coef: 1})
			}
		}

		if len(terms) > 0 {
			model.AddConstraint(terms, milp.LessEq, float64(p.Stock))
		}
	}

	// Global seller MOQ: total allocation clears the floor or z stays 0.
	for i := range buyers {
		terms := []milp.Term{{Var: z[i], Coef: -float64(s.globalMOQ)}}

		for _, ln := range lines {
			if ln.buyer == i {
				terms = append(terms, milp.Term{Var: ln.x, Coef: 1})
			}
		}

		model.AddConstraint(terms, milp.GreaterEq, 0)
	}

	return model, lines
}

// outcome rounds the raw solution to packaging multiples and re-checks the
// global floor. Rounding can leave a buyer just under it, and the policy is
// all-or-nothing: this check is authoritative, not the MILP constraint alone.
func (s *Solver) outcome(buyers []entity.Buyer, sol milp.Solution, lines []line) entity.Outcome {
	alloc := make(entity.Allocation, len(buyers))
	for _, b := range buyers {
		alloc[b.Name] = make(map[string]int64, len(b.Offers))
		for id := range b.Offers {
			alloc[b.Name][id] = 0
		}
	}

	status := entity.SolveStatusSolved
	if sol.Status != milp.StatusOptimal {
		// Timeout is infeasibility-equivalent: a partial incumbent is not
		// handed out.
		status = entity.SolveStatusInfeasible
		sol.Values = nil
	}

	var revenue float64

	for i, b := range buyers {
		var total int64

		for _, ln := range lines {
			if ln.buyer != i {
				continue
			}

			total += roundToMultiple(value(sol, ln.x), ln.product.VolumeMultiple)
		}

		if total < s.globalMOQ {
			continue // every line of this buyer stays zero
		}

		for _, ln := range lines {
			if ln.buyer != i {
				continue
			}

			qty := roundToMultiple(value(sol, ln.x), ln.product.VolumeMultiple)
			alloc[b.Name][ln.product.ID] = qty
			revenue += float64(qty) * ln.offer.CurrentPrice
		}
	}

	return entity.Outcome{
		Status:       status,
		Allocation:   alloc,
		TotalRevenue: revenue,
	}
}

// value treats a missing solution vector as all zeros.
func value(sol milp.Solution, v milp.Var) float64 {
	if sol.Values == nil || int(v) >= len(sol.Values) {
		return 0
	}

	return sol.Values[v]
}

// roundToMultiple rounds to the nearest multiple with round-half-to-even
// arithmetic on value/multiple, matching the backend's relaxed values.
func roundToMultiple(v float64, multiple int64) int64 {
	return int64(math.RoundToEven(v/float64(multiple))) * multiple
}
