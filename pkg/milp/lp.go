package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const perturbEps = 1e-9

// solveRelaxation solves the LP relaxation of the model under the given
// variable bounds (which may be tighter than the model's own, during
// branching). It maximizes the model objective.
//
// The simplex wants standard form (minimize c·x, Ax = b, x ≥ 0), so each
// variable is shifted by its lower bound, finite upper bounds become extra
// rows and inequalities get slack columns.
func solveRelaxation(m *Model, lower, upper []float64) (obj float64, values []float64, feasible bool, err error) {
	n := m.NumVars()

	for i := 0; i < n; i++ {
		if lower[i] > upper[i] {
			return 0, nil, false, nil
		}
	}

	type row struct {
		coefs []float64
		sense Sense
		rhs   float64
	}

	rows := make([]row, 0, len(m.constraints)+n)

	var objConst float64

	for _, c := range m.constraints {
		coefs := make([]float64, n)
		rhs := c.RHS

		for _, t := range c.Terms {
			coefs[t.Var] += t.Coef
			rhs -= t.Coef * lower[t.Var] // shift x = y + lb
		}

		rows = append(rows, row{coefs: coefs, sense: c.Sense, rhs: rhs})
	}

	for i := 0; i < n; i++ {
		objConst += m.objective[i] * lower[i]

		if math.IsInf(upper[i], 1) {
			continue
		}

		coefs := make([]float64, n)
		coefs[i] = 1

		rows = append(rows, row{coefs: coefs, sense: LessEq, rhs: upper[i] - lower[i]})
	}

	slacks := 0

	for _, r := range rows {
		if r.sense != Equal {
			slacks++
		}
	}

	cols := n + slacks

	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	c := make([]float64, cols)

	for i := 0; i < n; i++ {
		c[i] = -m.objective[i] // maximize → minimize the negation
	}

	slack := n

	for i, r := range rows {
		coefs := r.coefs
		rhs := r.rhs
		slackCoef := 0.0

		switch r.sense {
		case LessEq:
			slackCoef = 1
		case GreaterEq:
			slackCoef = -1
		case Equal:
		}

		// Phase one behaves better with non-negative b.
		sign := 1.0
		if rhs < 0 {
			sign = -1
			rhs = -rhs
		}

		for j := 0; j < n; j++ {
			a.Set(i, j, sign*coefs[j])
		}

		if slackCoef != 0 {
			a.Set(i, slack, sign*slackCoef)
			slack++
		}

		b[i] = rhs
	}

	optF, optX, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil && !errors.Is(err, lp.ErrInfeasible) && !errors.Is(err, lp.ErrUnbounded) {
		// Degenerate ties between redundant rows can stall Bland's rule.
		// A graded perturbation of the rhs breaks the ties; the shift stays
		// far below the integrality tolerance of the caller.
		perturbed := make([]float64, len(b))
		for i := range b {
			perturbed[i] = b[i] + perturbEps*float64(i+1)
		}

		optF, optX, err = lp.Simplex(c, a, perturbed, 0, nil)
	}

	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, nil, false, nil
		}

		return 0, nil, false, fmt.Errorf("lp.Simplex: %w", err)
	}

	values = make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = optX[i] + lower[i]
	}

	return -optF + objConst, values, true, nil
}
