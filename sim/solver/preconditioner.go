package solver

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// Conditioner reorders a graph before it is solved greedily.
type Conditioner interface {
	Condition(g *graph.Graph) error
}

// NewConditioner builds the preconditioner named by cfg. "none" returns nil,
// which leaves the graph in translation order.
func NewConditioner(cfg sim.PreconditionerConfig) (Conditioner, error) {
	switch cfg.PreconditionerName() {
	case sim.PreconditionerGreedy:
		p, err := NewGreedyPreconditioner(cfg.CommodityWeights, cfg.WeightOrder())
		if err != nil {
			return nil, err
		}
		return p, nil
	case sim.PreconditionerNone:
		return nil, nil
	default:
		return nil, sim.NewConfigurationError("preconditioner.name", "unknown preconditioner %q", cfg.Name)
	}
}

// GreedyPreconditioner orders request nodes and groups so that the greedy
// solver serves high-priority commodities and well-liked requests first.
//
// A node's weight is commodity_weight * (1 + p/(1+p)) where p is the node's
// average arc preference. Nodes sort by descending weight within their group;
// groups sort by descending mean node weight.
type GreedyPreconditioner struct {
	weights map[string]float64
}

// NewGreedyPreconditioner copies the commodity weights, reversing their order
// (w -> max+min-w) when order is "reverse". An empty weight map weighs every
// commodity 1.
func NewGreedyPreconditioner(weights map[string]float64, order string) (*GreedyPreconditioner, error) {
	if !sim.ValidWeightOrders[order] {
		return nil, sim.NewConfigurationError("preconditioner.order", "unknown weight order %q", order)
	}
	p := &GreedyPreconditioner{weights: make(map[string]float64, len(weights))}
	if len(weights) == 0 {
		return p, nil
	}

	commods := make([]string, 0, len(weights))
	vals := make([]float64, 0, len(weights))
	for c := range weights {
		commods = append(commods, c)
	}
	sort.Strings(commods)
	for _, c := range commods {
		if weights[c] < 0 {
			return nil, sim.NewConfigurationError("preconditioner.commodity_weights", "weight for %q must be non-negative", c)
		}
		vals = append(vals, weights[c])
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	for i, c := range commods {
		w := vals[i]
		if order == sim.WeightOrderReverse {
			w = hi + lo - w
		}
		p.weights[c] = w
		logrus.Debugf("greedy preconditioner weight for %s is %g", c, w)
	}
	return p, nil
}

// CommodityWeight returns the weight of a commodity. A commodity missing from
// a non-empty weight map is a configuration error.
func (p *GreedyPreconditioner) CommodityWeight(commod string) (float64, error) {
	if len(p.weights) == 0 {
		return 1, nil
	}
	w, ok := p.weights[commod]
	if !ok {
		return 0, sim.NewConfigurationError("preconditioner.commodity_weights", "no weight for commodity %q", commod)
	}
	return w, nil
}

// NodeWeight computes commodity_weight * (1 + avgPref/(1+avgPref)).
func NodeWeight(commodWeight, avgPref float64) float64 {
	return commodWeight * (1 + avgPref/(1+avgPref))
}

// Condition reorders the graph in place.
func (p *GreedyPreconditioner) Condition(g *graph.Graph) error {
	groups := append([]graph.GroupID(nil), g.RequestGroups()...)
	groupWeight := make(map[graph.GroupID]float64, len(groups))

	for _, gid := range groups {
		grp := g.Group(gid)
		nodeWeight := make(map[graph.NodeID]float64, len(grp.Nodes))
		ws := make([]float64, 0, len(grp.Nodes))
		for _, nid := range grp.Nodes {
			n := g.Node(nid)
			cw, err := p.CommodityWeight(n.Commodity)
			if err != nil {
				return err
			}
			w := NodeWeight(cw, n.AvgPref())
			nodeWeight[nid] = w
			ws = append(ws, w)
		}

		order := append([]graph.NodeID(nil), grp.Nodes...)
		sort.SliceStable(order, func(i, j int) bool {
			wi, wj := nodeWeight[order[i]], nodeWeight[order[j]]
			if wi != wj {
				return wi > wj
			}
			return order[i] < order[j]
		})
		if err := g.ReorderNodes(gid, order); err != nil {
			return err
		}

		if len(ws) > 0 {
			groupWeight[gid] = floats.Sum(ws) / float64(len(ws))
		}
		logrus.Debugf("request group %d weight %g", gid, groupWeight[gid])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		wi, wj := groupWeight[groups[i]], groupWeight[groups[j]]
		if wi != wj {
			return wi > wj
		}
		return groups[i] < groups[j]
	})
	return g.ReorderRequestGroups(groups)
}
