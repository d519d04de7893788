package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

const (
	simplexTol  = 1e-10
	integralTol = 1e-6
	feasibleTol = 1e-7
)

// Prog solves the exchange graph as a mixed integer program. Continuous
// relaxations are solved with the gonum simplex; binary arcs are resolved by
// depth-first branch and bound. When the timeout elapses the best integral
// solution found so far is returned.
type Prog struct {
	exclusiveOrders bool
	timeout         time.Duration
	verbose         bool
}

// NewProg creates a Prog solver. A non-positive timeout disables the limit.
func NewProg(exclusiveOrders bool, timeout time.Duration, verbose bool) *Prog {
	return &Prog{exclusiveOrders: exclusiveOrders, timeout: timeout, verbose: verbose}
}

// Name implements Solver.
func (s *Prog) Name() string { return sim.SolverLPMIP }

// Solve implements Solver.
func (s *Prog) Solve(ctx context.Context, g *graph.Graph) (*Result, error) {
	if g.Empty() {
		return &Result{}, nil
	}
	t := NewProgTranslator(g, s.exclusiveOrders)
	p, err := t.ToProg()
	if err != nil {
		return nil, err
	}

	bb := &branchAndBound{p: p, verbose: s.verbose, bestObj: math.Inf(1)}
	if s.timeout > 0 {
		bb.deadline = time.Now().Add(s.timeout)
	}
	bb.seedIncumbent()

	lo := make([]float64, p.NumVars())
	hi := append([]float64(nil), p.Upper...)
	if err := bb.search(ctx, lo, hi); err != nil {
		return nil, err
	}
	if bb.best == nil {
		return nil, sim.NewStateError("lp-mip: no feasible solution for %d variables and %d rows", p.NumVars(), len(p.Rows))
	}
	if bb.timedOut {
		logrus.Warnf("lp-mip: stopped after %s with %d nodes explored, using best solution (objective %g)",
			s.timeout, bb.explored, bb.bestObj)
	}

	if err := t.FromProg(bb.best); err != nil {
		return nil, err
	}
	res := &Result{
		Matches:   g.Matches(),
		Objective: bb.bestObj,
		TimedOut:  bb.timedOut,
	}
	for _, gid := range g.RequestGroups() {
		if j, ok := p.Faux[gid]; ok {
			res.Unmatched += bb.best[j]
		}
	}
	logrus.Debugf("lp-mip solve: %d matches, objective %g, unmatched %g, %d nodes",
		len(res.Matches), res.Objective, res.Unmatched, bb.explored)
	return res, nil
}

type branchAndBound struct {
	p        *Program
	verbose  bool
	deadline time.Time

	best     []float64
	bestObj  float64
	explored int
	timedOut bool
}

// seedIncumbent installs the solution that moves nothing and lets every faux
// arc absorb its group's demand.
func (bb *branchAndBound) seedIncumbent() {
	x := make([]float64, bb.p.NumVars())
	for _, row := range bb.p.Rows {
		if math.IsInf(row.Lo, -1) {
			continue
		}
		for k, j := range row.Idx {
			if j >= bb.p.NumArcs && row.Val[k] > 0 {
				x[j] = math.Max(x[j], row.Lo/row.Val[k])
			}
		}
	}
	if bb.p.feasible(x) {
		bb.best = x
		bb.bestObj = bb.p.objective(x)
	}
}

// expired reports whether the search must stop. Cancellation is treated
// like the deadline: the incumbent stands.
func (bb *branchAndBound) expired(ctx context.Context) bool {
	if ctx.Err() != nil || (!bb.deadline.IsZero() && time.Now().After(bb.deadline)) {
		bb.timedOut = true
	}
	return bb.timedOut
}

func (bb *branchAndBound) search(ctx context.Context, lo, hi []float64) error {
	if bb.expired(ctx) {
		return nil
	}
	bb.explored++

	obj, x, err := bb.p.relax(lo, hi)
	if errors.Is(err, lp.ErrInfeasible) {
		return nil
	}
	if err != nil {
		return err
	}
	if obj >= bb.bestObj-feasibleTol {
		return nil
	}

	branch := -1
	for j, bin := range bb.p.Binary {
		if bin && math.Abs(x[j]-math.Round(x[j])) > integralTol {
			branch = j
			break
		}
	}
	if branch < 0 {
		for j, bin := range bb.p.Binary {
			if bin {
				x[j] = math.Round(x[j])
			}
		}
		bb.best, bb.bestObj = x, obj
		if bb.verbose {
			logrus.Infof("lp-mip: incumbent %g after %d nodes", obj, bb.explored)
		}
		return nil
	}

	first := math.Round(x[branch])
	for _, v := range []float64{first, 1 - first} {
		clo := append([]float64(nil), lo...)
		chi := append([]float64(nil), hi...)
		clo[branch], chi[branch] = v, v
		if err := bb.search(ctx, clo, chi); err != nil {
			return err
		}
		if bb.timedOut {
			return nil
		}
	}
	return nil
}

func (p *Program) objective(x []float64) float64 {
	obj := 0.0
	for j, c := range p.Cost {
		obj += c * x[j]
	}
	return obj
}

func (p *Program) feasible(x []float64) bool {
	for j, v := range x {
		if v < -feasibleTol || v > p.Upper[j]+feasibleTol {
			return false
		}
	}
	for _, row := range p.Rows {
		sum := 0.0
		for k, j := range row.Idx {
			sum += row.Val[k] * x[j]
		}
		if sum < row.Lo-feasibleTol || sum > row.Hi+feasibleTol {
			return false
		}
	}
	return true
}

// relax solves the continuous relaxation with variables bounded by lo and hi.
// Variables are shifted to y = x - lo; fixed variables and variables that
// appear in no row are eliminated. Every inequality gets its own slack column,
// so the equality matrix handed to the simplex always has full row rank.
func (p *Program) relax(lo, hi []float64) (float64, []float64, error) {
	n := p.NumVars()
	x := append([]float64(nil), lo...)

	col := make([]int, n)
	for j := range col {
		col[j] = -1
	}
	inRow := make([]bool, n)
	for _, row := range p.Rows {
		for _, j := range row.Idx {
			inRow[j] = true
		}
	}
	var free []int
	for j := 0; j < n; j++ {
		if hi[j]-lo[j] > feasibleTol && inRow[j] {
			col[j] = len(free)
			free = append(free, j)
		}
	}

	type ineq struct {
		coef  map[int]float64
		rhs   float64
		sense float64 // +1 for <=, -1 for >=
	}
	var rows []ineq
	add := func(coef map[int]float64, rhs, sense float64) error {
		if len(coef) == 0 {
			if sense*rhs < -feasibleTol {
				return lp.ErrInfeasible
			}
			return nil
		}
		rows = append(rows, ineq{coef: coef, rhs: rhs, sense: sense})
		return nil
	}

	for _, row := range p.Rows {
		coef := make(map[int]float64)
		shift := 0.0
		for k, j := range row.Idx {
			shift += row.Val[k] * lo[j]
			if c := col[j]; c >= 0 {
				coef[c] += row.Val[k]
			}
		}
		if !math.IsInf(row.Hi, 1) {
			if err := add(coef, row.Hi-shift, 1); err != nil {
				return 0, nil, err
			}
		}
		if !math.IsInf(row.Lo, -1) {
			if err := add(coef, row.Lo-shift, -1); err != nil {
				return 0, nil, err
			}
		}
	}
	for _, j := range free {
		if !math.IsInf(hi[j], 1) {
			rows = append(rows, ineq{coef: map[int]float64{col[j]: 1}, rhs: hi[j] - lo[j], sense: 1})
		}
	}

	if len(free) == 0 || len(rows) == 0 {
		return p.objective(x), x, nil
	}

	m := len(rows)
	width := len(free) + m
	a := mat.NewDense(m, width, nil)
	b := make([]float64, m)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for c, v := range r.coef {
			a.Set(i, c, sign*v)
		}
		a.Set(i, len(free)+i, sign*r.sense)
		b[i] = sign * r.rhs
	}
	c := make([]float64, width)
	for k, j := range free {
		c[k] = p.Cost[j]
	}

	_, y, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return 0, nil, err
	}
	for k, j := range free {
		x[j] = lo[j] + math.Max(0, y[k])
	}
	return p.objective(x), x, nil
}
