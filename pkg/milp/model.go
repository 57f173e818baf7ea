// Package milp provides a small mixed-integer linear programming toolkit:
// a model builder and a branch-and-bound solver on top of an LP simplex.
// It knows nothing about auctions; callers translate their domain into
// variables and linear constraints.
package milp

import "math"

type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Var is an opaque handle into the model's variable table.
type Var int

type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

type Term struct {
	Var  Var
	Coef float64
}

type Constraint struct {
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is an objective plus linear constraints over typed variables.
// The objective is always maximized.
type Model struct {
	names       []string
	kinds       []VarKind
	lower       []float64
	upper       []float64
	objective   []float64
	constraints []Constraint
}

func NewModel() *Model {
	return &Model{}
}

// AddVar registers a variable with the given bounds. Binary variables are
// forced to [0, 1] regardless of the bounds passed in.
func (m *Model) AddVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower, upper = 0, 1
	}

	m.names = append(m.names, name)
	m.kinds = append(m.kinds, kind)
	m.lower = append(m.lower, lower)
	m.upper = append(m.upper, upper)
	m.objective = append(m.objective, 0)

	return Var(len(m.names) - 1)
}

func (m *Model) SetObjectiveCoef(v Var, coef float64) {
	m.objective[v] = coef
}

func (m *Model) AddConstraint(terms []Term, sense Sense, rhs float64) {
	m.constraints = append(m.constraints, Constraint{Terms: terms, Sense: sense, RHS: rhs})
}

func (m *Model) NumVars() int {
	return len(m.names)
}

func (m *Model) Name(v Var) string {
	return m.names[v]
}

// Unbounded is a convenience upper bound for AddVar.
func Unbounded() float64 {
	return math.Inf(1)
}
