package solver

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// Greedy satisfies request groups one at a time, in graph order, each node
// taking flow from its most preferred arcs first. Capacity is consumed as it
// is assigned and never given back, so the order fixed by the conditioner
// determines the allocation.
type Greedy struct {
	exclusiveOrders bool
	conditioner     Conditioner // may be nil
}

// NewGreedy creates a greedy solver. A nil conditioner keeps translation order.
func NewGreedy(exclusiveOrders bool, c Conditioner) *Greedy {
	return &Greedy{exclusiveOrders: exclusiveOrders, conditioner: c}
}

// Name implements Solver.
func (s *Greedy) Name() string { return sim.SolverGreedy }

// greedyRun is the mutable state of one Solve call.
type greedyRun struct {
	g          *graph.Graph
	exclusive  bool
	grpCaps    [][]float64 // remaining capacity per group row, indexed by GroupID
	used       []float64   // flow assigned so far, indexed by NodeID
	foreclosed []bool      // node excluded by an exclusive grouping, indexed by NodeID
	exclOf     [][]int     // exclusive groupings each node belongs to
	exclGroups [][]graph.NodeID
	obj        float64
	unmatched  float64
}

// Solve implements Solver. It conditions the graph, then assigns flow.
func (s *Greedy) Solve(_ context.Context, g *graph.Graph) (*Result, error) {
	pseudoCost := PseudoCost(g, s.exclusiveOrders)
	if s.conditioner != nil {
		if err := s.conditioner.Condition(g); err != nil {
			return nil, err
		}
	}

	run := newGreedyRun(g, s.exclusiveOrders)
	for _, gid := range g.RequestGroups() {
		if err := run.satisfyGroup(gid); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Matches:   g.Matches(),
		Objective: run.obj + run.unmatched*pseudoCost,
		Unmatched: run.unmatched,
	}
	logrus.Debugf("greedy solve: %d matches, objective %g, unmatched %g", len(res.Matches), res.Objective, res.Unmatched)
	return res, nil
}

func newGreedyRun(g *graph.Graph, exclusive bool) *greedyRun {
	run := &greedyRun{
		g:          g,
		exclusive:  exclusive,
		grpCaps:    make([][]float64, g.NumGroups()),
		used:       make([]float64, g.NumNodes()),
		foreclosed: make([]bool, g.NumNodes()),
		exclOf:     make([][]int, g.NumNodes()),
	}
	for i := 0; i < g.NumGroups(); i++ {
		grp := g.Group(graph.GroupID(i))
		caps := make([]float64, len(grp.Rows))
		for j, r := range grp.Rows {
			caps[j] = r.Value
			if r.Unlimited() {
				caps[j] = math.Inf(1)
			}
		}
		run.grpCaps[i] = caps
		for _, members := range grp.ExclGroups {
			idx := len(run.exclGroups)
			run.exclGroups = append(run.exclGroups, members)
			for _, n := range members {
				run.exclOf[n] = append(run.exclOf[n], idx)
			}
		}
	}
	return run
}

func (run *greedyRun) satisfyGroup(gid graph.GroupID) error {
	grp := run.g.Group(gid)
	target := grp.Qty
	match := 0.0
	logrus.Debugf("greedy solving for %g of request group %d", target, gid)

	for _, nid := range grp.Nodes {
		if target-match <= sim.Eps {
			break
		}
		for _, aid := range run.rankedArcs(nid) {
			remain := target - match
			if remain <= sim.Eps {
				break
			}
			a := run.g.Arc(aid)
			if run.exclusive && (run.foreclosed[a.U] || run.foreclosed[a.V]) {
				continue
			}

			capacity, err := run.arcCapacity(a)
			if err != nil {
				return err
			}
			tomatch := math.Min(remain, capacity)
			if run.exclusive && a.Exclusive {
				if a.ExclVal <= sim.Eps || tomatch+sim.Eps < a.ExclVal {
					tomatch = 0
				} else {
					tomatch = a.ExclVal
				}
			}
			if tomatch <= sim.Eps {
				continue
			}

			if err := run.consume(a.U, a, tomatch); err != nil {
				return err
			}
			if err := run.consume(a.V, a, tomatch); err != nil {
				return err
			}
			if err := run.g.AddMatch(aid, tomatch); err != nil {
				return err
			}
			match += tomatch
			if pref := run.g.Node(a.U).Prefs[aid]; pref > 0 {
				run.obj += tomatch / pref
			}
		}
	}

	if target > match {
		run.unmatched += target - match
	}
	return nil
}

// rankedArcs orders a request node's arcs by descending preference. Ties go
// to the larger requester id, then the larger bidder id, then the older arc.
func (run *greedyRun) rankedArcs(nid graph.NodeID) []graph.ArcID {
	n := run.g.Node(nid)
	arcs := append([]graph.ArcID(nil), n.Arcs()...)
	sort.SliceStable(arcs, func(i, j int) bool {
		pi, pj := n.Prefs[arcs[i]], n.Prefs[arcs[j]]
		if pi != pj {
			return pi > pj
		}
		ai, aj := run.g.Arc(arcs[i]), run.g.Arc(arcs[j])
		ri, rj := run.g.Node(ai.U).AgentID, run.g.Node(aj.U).AgentID
		if ri != rj {
			return ri > rj
		}
		bi, bj := run.g.Node(ai.V).AgentID, run.g.Node(aj.V).AgentID
		if bi != bj {
			return bi > bj
		}
		return arcs[i] < arcs[j]
	})
	return arcs
}

// arcCapacity is the most flow the arc can take right now.
func (run *greedyRun) arcCapacity(a graph.Arc) (float64, error) {
	ucap, err := run.nodeCapacity(a.U, a)
	if err != nil {
		return 0, err
	}
	vcap, err := run.nodeCapacity(a.V, a)
	if err != nil {
		return 0, err
	}
	logrus.Tracef("arc %d capacity: request side %g, supply side %g", a.ID, ucap, vcap)
	return math.Min(ucap, vcap), nil
}

// nodeCapacity converts the remaining capacity of the node's group rows into
// flow units on arc a. A request group must meet its largest row, so the
// largest quotient binds; a supply group must respect every row, so the
// smallest does. Either way the node's own remaining quantity caps the result.
func (run *greedyRun) nodeCapacity(nid graph.NodeID, a graph.Arc) (float64, error) {
	n := run.g.Node(nid)
	grp := run.g.Group(n.Group)
	remaining := n.Qty - run.used[nid]

	unit := n.UnitCaps[a.ID]
	if len(unit) == 0 {
		return remaining, nil
	}
	if len(unit) != len(grp.Rows) {
		return 0, sim.NewStateError("node %d has %d unit capacities on arc %d for %d capacity rows",
			nid, len(unit), a.ID, len(grp.Rows))
	}

	caps := run.grpCaps[n.Group]
	var quotients []float64
	for i, r := range grp.Rows {
		if r.Sense == graph.SenseNone {
			continue
		}
		if math.IsInf(caps[i], 1) || unit[i] <= 0 {
			quotients = append(quotients, math.Inf(1))
			continue
		}
		quotients = append(quotients, caps[i]/unit[i])
	}
	if len(quotients) == 0 {
		return remaining, nil
	}

	c := quotients[0]
	for _, q := range quotients[1:] {
		if grp.Kind == graph.KindRequest {
			c = math.Max(c, q)
		} else {
			c = math.Min(c, q)
		}
	}
	return math.Min(c, remaining), nil
}

// consume charges qty of flow on arc a to node nid and its group.
func (run *greedyRun) consume(nid graph.NodeID, a graph.Arc, qty float64) error {
	n := run.g.Node(nid)
	caps := run.grpCaps[n.Group]
	for i, uc := range n.UnitCaps[a.ID] {
		if !math.IsInf(caps[i], 1) {
			caps[i] -= qty * uc
		}
	}

	run.used[nid] += qty
	if sim.IsNegative(n.Qty - run.used[nid]) {
		return sim.NewStateError("%s node %d for %s has quantity %g but was matched %g",
			run.g.Group(n.Group).Kind, nid, n.Commodity, n.Qty, run.used[nid])
	}

	if run.exclusive {
		for _, idx := range run.exclOf[nid] {
			for _, member := range run.exclGroups[idx] {
				run.foreclosed[member] = true
			}
		}
	}
	return nil
}
