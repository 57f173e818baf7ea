package milp

import (
	"context"
	"fmt"
	"math"
)

type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Solver resolves a model into variable values or an infeasibility signal.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

const (
	defaultIntTol   = 1e-6
	defaultGapTol   = 1e-9
	defaultMaxNodes = 100000
)

// BranchBound is a depth-first branch-and-bound solver over the LP
// relaxation. Nodes whose relaxation cannot beat the incumbent are pruned.
type BranchBound struct {
	intTol   float64
	gapTol   float64
	maxNodes int
}

func NewBranchBound() *BranchBound {
	return &BranchBound{
		intTol:   defaultIntTol,
		gapTol:   defaultGapTol,
		maxNodes: defaultMaxNodes,
	}
}

func (s *BranchBound) WithMaxNodes(n int) *BranchBound {
	s.maxNodes = n
	return s
}

func (s *BranchBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	type node struct {
		lower, upper []float64
	}

	root := node{
		lower: append([]float64(nil), m.lower...),
		upper: append([]float64(nil), m.upper...),
	}

	stack := []node{root}

	var (
		best    *Solution
		visited int
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return s.interrupted(best), nil
		}

		visited++
		if visited > s.maxNodes {
			return s.interrupted(best), nil
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, values, feasible, err := solveRelaxation(m, nd.lower, nd.upper)
		if err != nil {
			return Solution{}, fmt.Errorf("solveRelaxation: %w", err)
		}

		if !feasible {
			continue
		}

		if best != nil && obj <= best.Objective+s.gapTol {
			continue
		}

		branch := s.fractionalVar(m, values)
		if branch < 0 {
			best = &Solution{Status: StatusOptimal, Objective: obj, Values: values}
			continue
		}

		v := values[branch]

		down := node{
			lower: append([]float64(nil), nd.lower...),
			upper: append([]float64(nil), nd.upper...),
		}
		down.upper[branch] = math.Floor(v)

		up := node{
			lower: append([]float64(nil), nd.lower...),
			upper: append([]float64(nil), nd.upper...),
		}
		up.lower[branch] = math.Ceil(v)

		// LIFO: explore the rounded-up branch first, it tends to reach
		// revenue-maximal incumbents sooner.
		stack = append(stack, down, up)
	}

	if best == nil {
		return Solution{Status: StatusInfeasible}, nil
	}

	return *best, nil
}

// fractionalVar picks the integer variable furthest from integrality,
// or -1 when the point is integral.
func (s *BranchBound) fractionalVar(m *Model, values []float64) int {
	branch := -1
	worst := s.intTol

	for i, kind := range m.kinds {
		if kind == Continuous {
			continue
		}

		_, frac := math.Modf(values[i])
		dist := math.Min(frac, 1-frac)

		if dist > worst {
			worst = dist
			branch = i
		}
	}

	return branch
}

func (s *BranchBound) interrupted(best *Solution) Solution {
	if best != nil {
		sol := *best
		sol.Status = StatusTimeout

		return sol
	}

	return Solution{Status: StatusTimeout}
}
