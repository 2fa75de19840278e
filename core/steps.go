package core

import "fmt"

// StepBudget bounds the number of graph steps of one run. A zero limit never
// runs out. A budget belongs to a single run and is not safe for concurrent use.
type StepBudget struct {
	limit int
	taken int
}

// NewStepBudget creates a budget of limit steps.
func NewStepBudget(limit int) *StepBudget {
	return &StepBudget{limit: limit}
}

// Take spends one step on node. Once the budget is spent it returns an error
// wrapping ErrRecursionLimit that names the offending node.
func (b *StepBudget) Take(node string) error {
	b.taken++
	if b.limit > 0 && b.taken > b.limit {
		return fmt.Errorf("%w: step %d (%s) exceeds the limit of %d", ErrRecursionLimit, b.taken, node, b.limit)
	}

	return nil
}

// Taken returns the number of steps spent so far, including a rejected one.
func (b *StepBudget) Taken() int { return b.taken }
