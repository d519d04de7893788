// Package solver finds flows on an exchange graph. Two implementations exist:
// Greedy, a fast heuristic that walks request groups in a fixed order and
// never reoptimizes, and Prog, which formulates the graph as a mixed integer
// program and hands it to an LP optimizer.
//
// Solvers record their result on the graph (graph.AddMatch) and also return it.
// Unmet demand is never an error; errors are reserved for structural problems
// with the graph and for configuration mistakes.
package solver

import (
	"context"
	"math"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// Solver solves one exchange graph.
type Solver interface {
	// Name identifies the solver in logs and metrics.
	Name() string
	// Solve assigns flow to the graph's arcs.
	Solve(ctx context.Context, g *graph.Graph) (*Result, error)
}

// Result summarizes a solve.
type Result struct {
	Matches []graph.Match
	// Objective is the cost of the solution: sum of flow/preference plus
	// unmet demand priced at the pseudo-cost. Diagnostic only.
	Objective float64
	// Unmatched is the total requested quantity left without flow.
	Unmatched float64
	// TimedOut is set when a bounded solve returned its best incumbent.
	TimedOut bool
}

// New builds the solver named by cfg. Unknown names are configuration errors.
func New(cfg sim.ExchangeConfig) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.SolverName() {
	case sim.SolverGreedy:
		cond, err := NewConditioner(cfg.Preconditioner)
		if err != nil {
			return nil, err
		}
		return NewGreedy(cfg.Exclusive(), cond), nil
	case sim.SolverLPMIP:
		return NewProg(cfg.Exclusive(), cfg.Prog.EffectiveTimeout(), cfg.Prog.Verbose), nil
	default:
		return nil, sim.NewConfigurationError("solver", "unknown solver %q", cfg.Solver)
	}
}

// PseudoCost is the price of one unit of unmet demand: the largest arc cost
// divided by the smallest positive unit capacity, plus one. It exceeds the
// cost of any real flow, so a minimizing solver never prefers leaving demand
// unmet over satisfying it.
func PseudoCost(g *graph.Graph, exclusiveOrders bool) float64 {
	maxCost := 0.0
	minUnit := math.Inf(1)
	for _, a := range g.Arcs() {
		cost := ArcCost(g, a, exclusiveOrders)
		if !math.IsInf(cost, 0) && cost > maxCost {
			maxCost = cost
		}
		for _, n := range []graph.NodeID{a.U, a.V} {
			for _, uc := range g.Node(n).UnitCaps[a.ID] {
				if uc > 0 && uc < minUnit {
					minUnit = uc
				}
			}
		}
	}
	if math.IsInf(minUnit, 1) {
		minUnit = 1
	}
	return maxCost/minUnit + 1
}

// ArcCost is the objective coefficient of an arc: the inverse of its
// preference, scaled by the exclusive value when the arc is binary.
func ArcCost(g *graph.Graph, a graph.Arc, exclusiveOrders bool) float64 {
	pref := g.Node(a.U).Prefs[a.ID]
	cost := math.Inf(1)
	if pref > 0 {
		cost = 1 / pref
	}
	if exclusiveOrders && a.Exclusive {
		cost *= a.ExclVal
	}
	return cost
}
