package solver

import (
	"math"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// Program is a linear program over non-negative variables:
//
//	minimize  Cost · x
//	s.t.      Lo[r] <= Rows[r] · x <= Hi[r]
//	          0 <= x[j] <= Upper[j]
//	          x[j] ∈ {0,1} where Binary[j]
//
// Variables 0..NumArcs-1 are arc flows, numbered by ArcID. The remaining
// variables are faux arcs, one per request group with demand rows, that
// absorb unmet demand so that the program is always feasible.
type Program struct {
	Cost   []float64
	Upper  []float64 // +Inf when unbounded
	Binary []bool
	Rows   []ProgRow

	NumArcs int
	Faux    map[graph.GroupID]int // request group -> faux variable
}

// ProgRow is one sparse constraint row. An infinite Lo or Hi leaves that
// side open.
type ProgRow struct {
	Idx []int
	Val []float64
	Lo  float64
	Hi  float64
}

// NumVars returns the number of decision variables.
func (p *Program) NumVars() int {
	return len(p.Cost)
}

// ProgTranslator converts an exchange graph into a Program and a Program
// solution back into matches.
type ProgTranslator struct {
	g               *graph.Graph
	exclusiveOrders bool
}

// NewProgTranslator creates a translator for g.
func NewProgTranslator(g *graph.Graph, exclusiveOrders bool) *ProgTranslator {
	return &ProgTranslator{g: g, exclusiveOrders: exclusiveOrders}
}

func (t *ProgTranslator) binary(a graph.Arc) bool {
	return t.exclusiveOrders && a.Exclusive
}

// coeff scales a unit coefficient by the exclusive value of binary arcs.
func (t *ProgTranslator) coeff(a graph.Arc, unit float64) float64 {
	if t.binary(a) {
		return unit * a.ExclVal
	}
	return unit
}

// ToProg builds the program.
func (t *ProgTranslator) ToProg() (*Program, error) {
	arcs := t.g.Arcs()
	p := &Program{
		NumArcs: len(arcs),
		Faux:    make(map[graph.GroupID]int),
	}

	for _, a := range arcs {
		cost := ArcCost(t.g, a, t.exclusiveOrders)
		if math.IsInf(cost, 0) || math.IsNaN(cost) {
			return nil, sim.NewStateError("arc %d has non-positive preference %g", a.ID, t.g.Node(a.U).Prefs[a.ID])
		}
		p.Cost = append(p.Cost, cost)
		p.Binary = append(p.Binary, t.binary(a))
		limit := math.Min(t.g.Node(a.U).Qty, t.g.Node(a.V).Qty)
		switch {
		case !t.binary(a):
			p.Upper = append(p.Upper, limit)
		case a.ExclVal > limit+sim.Eps:
			// the whole order cannot fit through either endpoint
			p.Upper = append(p.Upper, 0)
		default:
			p.Upper = append(p.Upper, 1)
		}
	}

	penalty := PseudoCost(t.g, t.exclusiveOrders)
	for _, gid := range t.g.SupplyGroups() {
		if err := t.translateGroup(p, gid, penalty); err != nil {
			return nil, err
		}
	}
	for _, gid := range t.g.RequestGroups() {
		if err := t.translateGroup(p, gid, penalty); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (t *ProgTranslator) translateGroup(p *Program, gid graph.GroupID, penalty float64) error {
	grp := t.g.Group(gid)
	req := grp.Kind == graph.KindRequest

	capRows := make([]ProgRow, len(grp.Rows))
	for _, nid := range grp.Nodes {
		n := t.g.Node(nid)
		for _, aid := range n.Arcs() {
			a := t.g.Arc(aid)
			unit, ok := n.UnitCaps[aid]
			if !ok {
				continue
			}
			if len(unit) != len(grp.Rows) {
				return sim.NewStateError("node %d has %d unit capacities on arc %d for %d capacity rows",
					nid, len(unit), aid, len(grp.Rows))
			}
			for i, uc := range unit {
				if uc == 0 {
					continue
				}
				capRows[i].Idx = append(capRows[i].Idx, int(aid))
				capRows[i].Val = append(capRows[i].Val, t.coeff(a, uc))
			}
		}

		// a node's arcs together may not exceed its quantity
		if arcs := n.Arcs(); len(arcs) > 1 {
			row := ProgRow{Lo: math.Inf(-1), Hi: n.Qty}
			for _, aid := range arcs {
				row.Idx = append(row.Idx, int(aid))
				row.Val = append(row.Val, t.coeff(t.g.Arc(aid), 1))
			}
			p.Rows = append(p.Rows, row)
		}
	}

	faux := -1
	if req && hasConstrainingRow(grp.Rows) {
		faux = p.NumVars()
		p.Faux[gid] = faux
		p.Cost = append(p.Cost, penalty)
		p.Upper = append(p.Upper, math.Inf(1))
		p.Binary = append(p.Binary, false)
	}

	for i, r := range grp.Rows {
		row := capRows[i]
		switch r.Sense {
		case graph.SenseNone:
			continue
		case graph.SenseGTEQ:
			row.Lo, row.Hi = r.Value, math.Inf(1)
		default:
			row.Lo, row.Hi = math.Inf(-1), r.Value
		}
		if r.Unlimited() {
			continue
		}
		if faux >= 0 && r.Sense == graph.SenseGTEQ {
			row.Idx = append(row.Idx, faux)
			row.Val = append(row.Val, 1)
		}
		if len(row.Idx) == 0 {
			continue
		}
		p.Rows = append(p.Rows, row)
	}

	if t.exclusiveOrders {
		for _, members := range grp.ExclGroups {
			row := ProgRow{Lo: math.Inf(-1), Hi: 1}
			for _, nid := range members {
				for _, aid := range t.g.Node(nid).Arcs() {
					if t.binary(t.g.Arc(aid)) {
						row.Idx = append(row.Idx, int(aid))
						row.Val = append(row.Val, 1)
					}
				}
			}
			if len(row.Idx) > 0 {
				p.Rows = append(p.Rows, row)
			}
		}
	}
	return nil
}

// hasConstrainingRow reports whether a group has a finite lower-bounded row
// that a faux arc must be able to satisfy.
func hasConstrainingRow(rows []graph.Row) bool {
	for _, r := range rows {
		if r.Sense == graph.SenseGTEQ && !r.Unlimited() {
			return true
		}
	}
	return false
}

// FromProg records the arc flows of a program solution as matches. Flows
// below Eps are dropped; binary flows are scaled back by the exclusive value.
func (t *ProgTranslator) FromProg(x []float64) error {
	for _, a := range t.g.Arcs() {
		flow := x[a.ID]
		if t.binary(a) {
			flow = math.Round(flow) * a.ExclVal
		}
		if flow > sim.Eps {
			if err := t.g.AddMatch(a.ID, flow); err != nil {
				return err
			}
		}
	}
	return nil
}
