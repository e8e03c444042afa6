package tspd

import "fmt"

// ConvergenceStrategy decides from the best-distance history whether a run
// should stop early
type ConvergenceStrategy interface {
	CheckConvergence(history []float64) (bool, string)
	Name() string
}

// NoImprovementStrategy stops after a number of iterations without a shorter tour
type NoImprovementStrategy struct {
	// Iterations without improvement before stopping
	Patience int
	// MinIterations before convergence can be detected
	MinIterations int
	// Tolerance is the smallest distance decrease that counts as improvement
	Tolerance float64
}

// NewNoImprovementStrategy creates a strategy with the given patience
func NewNoImprovementStrategy(patience int) *NoImprovementStrategy {
	return &NoImprovementStrategy{
		Patience:      patience,
		MinIterations: 3,
		Tolerance:     1e-9,
	}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []float64) (bool, string) {
	if s.Patience <= 0 || len(history) < s.MinIterations {
		return false, ""
	}

	bestIteration := 0
	best := history[0]
	for i, d := range history {
		if d < best-s.Tolerance {
			best = d
			bestIteration = i
		}
	}

	since := len(history) - 1 - bestIteration
	if since >= s.Patience {
		return true, fmt.Sprintf("no improvement for %d iterations (best at iteration %d)", since, bestIteration+1)
	}
	return false, ""
}
