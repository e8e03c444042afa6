package tspd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/internal/geo"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
	"github.com/GoSim-25-26J-441/tourviz/pkg/utils"
)

const (
	OperationMutation  = "mutation"
	OperationCrossover = "crossover"

	goalScale = 10000.0
)

// SolverOptions tune the genetic solver
type SolverOptions struct {
	Iterations    int
	Population    int
	StepDelay     time.Duration
	ConvergeAfter int
	Seed          int64
}

// SolverOptionsFromConfig converts a validated solver config section
func SolverOptionsFromConfig(cfg config.SolverConfig) (SolverOptions, error) {
	delay, err := cfg.GetStepDelay()
	if err != nil {
		return SolverOptions{}, fmt.Errorf("invalid solver step_delay: %w", err)
	}
	return SolverOptions{
		Iterations:    cfg.Iterations,
		Population:    cfg.Population,
		StepDelay:     delay,
		ConvergeAfter: cfg.ConvergeAfter,
		Seed:          cfg.Seed,
	}, nil
}

// Iteration is the progress report of one solver step
type Iteration struct {
	Number       int
	BestDistance float64
	BestPath     []int
	Operation    string
	Goal         float64
	Heatmap      []models.HeatmapCell
}

// Solver is a small genetic TSP solver: a population of tours evolved by
// alternating swap mutation and order crossover, with a 2-opt pass on the best tour
type Solver struct {
	opts        SolverOptions
	rng         *utils.RandSource
	convergence ConvergenceStrategy
	log         *slog.Logger
}

// NewSolver creates a solver. A zero seed picks a time-based one.
func NewSolver(opts SolverOptions, log *slog.Logger) *Solver {
	if opts.Iterations <= 0 {
		opts.Iterations = 20
	}
	if opts.Population < 2 {
		opts.Population = 20
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Solver{
		opts:        opts,
		rng:         utils.NewRandSource(seed),
		convergence: NewNoImprovementStrategy(opts.ConvergeAfter),
		log:         log,
	}
}

// Solve evolves tours over points, calling emit after every iteration. It
// returns ctx.Err() when cancelled and emit's error if emit fails.
func (s *Solver) Solve(ctx context.Context, points []models.Point, emit func(Iteration) error) error {
	n := len(points)
	if n < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	dist := geo.DistanceMatrix(points)

	pop := make([][]int, s.opts.Population)
	lengths := make([]float64, len(pop))
	for i := range pop {
		pop[i] = s.rng.Perm(n)
		lengths[i] = tourLength(dist, pop[i])
	}

	history := make([]float64, 0, s.opts.Iterations)
	for it := 1; it <= s.opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		op := OperationMutation
		var child []int
		if it%2 == 0 {
			op = OperationCrossover
			a, b := s.rng.TwoDistinct(len(pop))
			child = orderCrossover(pop[a], pop[b], s.rng)
		} else {
			child = swapMutation(pop[s.rng.Intn(len(pop))], s.rng)
		}
		if l := tourLength(dist, child); l < lengths[worst(lengths)] {
			w := worst(lengths)
			pop[w], lengths[w] = child, l
		}

		b := best(lengths)
		if twoOpt(dist, pop[b]) {
			lengths[b] = tourLength(dist, pop[b])
		}
		bestLen := lengths[b]
		history = append(history, bestLen)

		if err := emit(Iteration{
			Number:       it,
			BestDistance: bestLen,
			BestPath:     append([]int(nil), pop[b]...),
			Operation:    op,
			Goal:         goal(bestLen),
			Heatmap:      heatmap(lengths, bestLen),
		}); err != nil {
			return err
		}

		if done, reason := s.convergence.CheckConvergence(history); done {
			s.log.Info("solver converged", "iteration", it, "reason", reason)
			return nil
		}
		if it < s.opts.Iterations && !sleep(ctx, s.opts.StepDelay) {
			return ctx.Err()
		}
	}
	return nil
}

func goal(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return goalScale / distance
}

// heatmap scores every tour relative to the best one; 1 is the best
func heatmap(lengths []float64, bestLen float64) []models.HeatmapCell {
	cells := make([]models.HeatmapCell, len(lengths))
	for i, l := range lengths {
		score := 1.0
		if l > 0 {
			score = utils.ClampFloat64(bestLen/l, 0, 1)
		}
		cells[i] = models.HeatmapCell{SolutionID: i, Score: utils.Round(score, 4)}
	}
	return cells
}

func tourLength(dist [][]float64, tour []int) float64 {
	total := 0.0
	for i := range tour {
		total += dist[tour[i]][tour[(i+1)%len(tour)]]
	}
	return total
}

func best(lengths []float64) int {
	b := 0
	for i, l := range lengths {
		if l < lengths[b] {
			b = i
		}
	}
	return b
}

func worst(lengths []float64) int {
	w := 0
	for i, l := range lengths {
		if l > lengths[w] {
			w = i
		}
	}
	return w
}

func swapMutation(parent []int, rng *utils.RandSource) []int {
	child := append([]int(nil), parent...)
	i, j := rng.TwoDistinct(len(child))
	child[i], child[j] = child[j], child[i]
	return child
}

// orderCrossover copies a slice of a and fills the rest in b's order
func orderCrossover(a, b []int, rng *utils.RandSource) []int {
	n := len(a)
	lo, hi := rng.TwoDistinct(n)
	if lo > hi {
		lo, hi = hi, lo
	}

	child := make([]int, n)
	used := make([]bool, n)
	for i := lo; i <= hi; i++ {
		child[i] = a[i]
		used[a[i]] = true
	}
	pos := (hi + 1) % n
	for k := 0; k < n; k++ {
		city := b[(hi+1+k)%n]
		if used[city] {
			continue
		}
		child[pos] = city
		used[city] = true
		pos = (pos + 1) % n
	}
	return child
}

// twoOpt applies the first improving segment reversal it finds
func twoOpt(dist [][]float64, tour []int) bool {
	n := len(tour)
	for i := 0; i < n-2; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			a, b := tour[i], tour[i+1]
			c, d := tour[j], tour[(j+1)%n]
			if dist[a][c]+dist[b][d] < dist[a][b]+dist[c][d]-1e-12 {
				for l, r := i+1, j; l < r; l, r = l+1, r-1 {
					tour[l], tour[r] = tour[r], tour[l]
				}
				return true
			}
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
