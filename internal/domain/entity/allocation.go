package entity

// Allocation maps buyer name → product id → allocated quantity. It is
// recomputed from scratch on every solve, never patched incrementally.
type Allocation map[string]map[string]int64

func (a Allocation) Of(buyer, product string) int64 {
	return a[buyer][product]
}

// TotalFor sums one buyer's allocation across all products.
func (a Allocation) TotalFor(buyer string) int64 {
	var total int64
	for _, qty := range a[buyer] {
		total += qty
	}

	return total
}

// AllocatedOf sums the allocation of one product across all buyers.
func (a Allocation) AllocatedOf(product string) int64 {
	var total int64
	for _, lines := range a {
		total += lines[product]
	}

	return total
}

type SolveStatus string

const (
	SolveStatusSolved     SolveStatus = "solved"
	SolveStatusInfeasible SolveStatus = "infeasible"
	SolveStatusEmpty      SolveStatus = "empty"
)

// Outcome is the full result of one allocation solve. Status distinguishes
// a legitimate all-zero allocation from "nothing solved" and from an empty
// buyer set.
type Outcome struct {
	Status       SolveStatus `json:"status"`
	Allocation   Allocation  `json:"allocation"`
	TotalRevenue float64     `json:"total_revenue"`
}
